package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/insightfinder/sampler-agent/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds all Prometheus metrics for the sampler
type Metrics struct {
	SamplesTotal   prometheus.Counter
	FailuresTotal  prometheus.Counter
	LastResult     prometheus.Gauge
	SampleDuration prometheus.Histogram
	ClassesLoaded  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates the sampler metrics on a dedicated registry
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		SamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Total number of emitted samples",
		}),
		FailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_failures_total",
			Help:      "Total number of aborted sampling runs",
		}),
		LastResult: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_result",
			Help:      "Value of the most recent sample",
		}),
		SampleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_duration_seconds",
			Help:      "Time spent querying the service for one sample",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ClassesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classes_loaded",
			Help:      "Number of class files registered from the classes directory",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.SamplesTotal,
		m.FailuresTotal,
		m.LastResult,
		m.SampleDuration,
		m.ClassesLoaded,
	)

	return m
}

// ObserveSample records an emitted sample
func (m *Metrics) ObserveSample(sample models.Sample) {
	m.SamplesTotal.Inc()
	m.LastResult.Set(float64(sample.Value))
	m.SampleDuration.Observe(sample.Duration.Seconds())
}

// ObserveFailure records an aborted run
func (m *Metrics) ObserveFailure(err error) {
	m.FailuresTotal.Inc()
}

func (m *Metrics) SetClassesLoaded(n int) {
	m.ClassesLoaded.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Serving metrics on %s/metrics", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
