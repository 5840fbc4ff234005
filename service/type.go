package service

import "context"

// Service is the capability the sampler polls once per iteration.
type Service interface {
	Get(ctx context.Context) (int, error)
}

// Func adapts a plain function to the Service interface.
type Func func(ctx context.Context) (int, error)

func (f Func) Get(ctx context.Context) (int, error) {
	return f(ctx)
}
