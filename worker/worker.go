package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	config "github.com/insightfinder/sampler-agent/configs"
	"github.com/insightfinder/sampler-agent/pkg/models"
	"github.com/insightfinder/sampler-agent/service"
	"github.com/sirupsen/logrus"
)

const (
	resultFormat      = "result: %d\n"
	completionMessage = "exiting..."
)

// ErrInterrupted is returned when a wait between samples is cut short.
var ErrInterrupted = errors.New("sampling interrupted")

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Observer is notified about every emitted sample and about the failure
// that aborted a run.
type Observer interface {
	ObserveSample(sample models.Sample)
	ObserveFailure(err error)
}

type Worker struct {
	iterations int
	interval   time.Duration
	service    service.Service
	out        io.Writer
	sleep      Sleeper
	observers  []Observer
	log        *logrus.Entry
}

func NewWorker(cfg config.SamplerConfig, svc service.Service, out io.Writer) *Worker {
	return &Worker{
		iterations: cfg.Iterations,
		interval:   cfg.IntervalDuration(),
		service:    svc,
		out:        out,
		sleep:      Sleep,
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
}

// WithSleeper replaces the wait between samples.
func (w *Worker) WithSleeper(s Sleeper) *Worker {
	w.sleep = s
	return w
}

func (w *Worker) WithObserver(o Observer) *Worker {
	w.observers = append(w.observers, o)
	return w
}

func (w *Worker) WithLogger(entry *logrus.Entry) *Worker {
	w.log = entry
	return w
}

// Run performs the configured number of wait-then-sample iterations, writes
// one result line per sample and a completion line once all of them are
// done. Any failure aborts the run before the completion line is written.
func (w *Worker) Run(ctx context.Context) error {
	if w.iterations < 0 {
		return fmt.Errorf("iteration bound must not be negative: %d", w.iterations)
	}

	w.log.Infof("Starting sampling: %d iterations, %v interval", w.iterations, w.interval)

	for i := 1; i <= w.iterations; i++ {
		if err := w.sleep(ctx, w.interval); err != nil {
			return w.fail(fmt.Errorf("%w after %d of %d samples: %w", ErrInterrupted, i-1, w.iterations, err))
		}

		start := time.Now()
		value, err := w.service.Get(ctx)
		if err != nil {
			return w.fail(fmt.Errorf("sample %d: %w", i, err))
		}
		elapsed := time.Since(start)

		if _, err := fmt.Fprintf(w.out, resultFormat, value); err != nil {
			return w.fail(fmt.Errorf("failed to write sample %d: %w", i, err))
		}

		w.log.Debugf("Sample %d/%d: %d (%v)", i, w.iterations, value, elapsed)

		sample := models.Sample{
			Iteration: i,
			Value:     value,
			Timestamp: start,
			Duration:  elapsed,
		}
		for _, o := range w.observers {
			o.ObserveSample(sample)
		}
	}

	if _, err := fmt.Fprintln(w.out, completionMessage); err != nil {
		return w.fail(fmt.Errorf("failed to write completion message: %w", err))
	}

	w.log.Infof("Sampling completed after %d iterations", w.iterations)
	return nil
}

func (w *Worker) fail(err error) error {
	w.log.Errorf("Sampling aborted: %v", err)
	for _, o := range w.observers {
		o.ObserveFailure(err)
	}
	return err
}

// Sleep waits for d using a timer so that cancellation of ctx ends the wait
// immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
