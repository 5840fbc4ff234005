//go:build !linux
// +build !linux

package service

import (
	"context"
	"errors"

	config "github.com/insightfinder/sampler-agent/configs"
)

var errEBPFUnsupported = errors.New("the ebpf service is only supported on linux")

type EBPF struct{}

func NewEBPF(cfg config.ServiceConfig) (*EBPF, error) {
	return nil, errEBPFUnsupported
}

func (e *EBPF) Get(ctx context.Context) (int, error) {
	return 0, errEBPFUnsupported
}

func (e *EBPF) Close() error {
	return nil
}
