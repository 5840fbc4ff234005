//go:build linux
// +build linux

package service

import (
	"context"
	"fmt"

	"github.com/cilium/ebpf"
	config "github.com/insightfinder/sampler-agent/configs"
	"github.com/sirupsen/logrus"
)

// EBPF reads a counter from a pinned eBPF map maintained by a program
// loaded outside of this process.
type EBPF struct {
	path   string
	key    uint32
	perCPU bool
	m      *ebpf.Map
}

func NewEBPF(cfg config.ServiceConfig) (*EBPF, error) {
	opts := &ebpf.LoadPinOptions{
		ReadOnly:  true,
		WriteOnly: false,
		Flags:     0,
	}
	m, err := ebpf.LoadPinnedMap(cfg.MapPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load pinned map %s: %w", cfg.MapPath, err)
	}

	logrus.Infof("Loaded pinned map %s (type %s, key %d, per_cpu=%v)", cfg.MapPath, m.Type(), cfg.MapKey, cfg.PerCPU)

	return &EBPF{
		path:   cfg.MapPath,
		key:    cfg.MapKey,
		perCPU: cfg.PerCPU,
		m:      m,
	}, nil
}

func (e *EBPF) Get(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := e.key
	if e.perCPU {
		var values []uint64
		if err := e.m.Lookup(&key, &values); err != nil {
			return 0, fmt.Errorf("map lookup failed: %w", err)
		}

		var total uint64
		for _, v := range values {
			total += v
		}
		return int(total), nil
	}

	var value uint64
	if err := e.m.Lookup(&key, &value); err != nil {
		return 0, fmt.Errorf("map lookup failed: %w", err)
	}
	return int(value), nil
}

func (e *EBPF) Close() error {
	logrus.Debugf("Closing pinned map %s", e.path)
	return e.m.Close()
}
