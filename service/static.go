package service

import "context"

// Static always returns the same value.
type Static struct {
	Value int
}

func NewStatic(value int) *Static {
	return &Static{Value: value}
}

func (s *Static) Get(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.Value, nil
}
