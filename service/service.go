package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	config "github.com/insightfinder/sampler-agent/configs"
	"github.com/sirupsen/logrus"
)

// New builds the service backend selected by cfg.Type.
func New(cfg config.ServiceConfig, opts config.AgentOptions) (Service, error) {
	logrus.Debugf("Building %s service", cfg.Type)

	switch cfg.Type {
	case config.ServiceStatic:
		return NewStatic(cfg.Value), nil
	case config.ServiceFile:
		return NewFile(resolvePath(cfg.Path, opts)), nil
	case config.ServiceHTTP:
		h, err := NewHTTP(cfg)
		if err != nil {
			return nil, err
		}
		return h, nil
	case config.ServiceEBPF:
		m, err := NewEBPF(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown service type %q, supported types: %s",
			cfg.Type, strings.Join(config.ServiceTypes, ", "))
	}
}

// Close releases the backend's resources if it holds any.
func Close(svc Service) error {
	if c, ok := svc.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// resolvePath makes relative paths relative to the classes_dir option.
func resolvePath(path string, opts config.AgentOptions) string {
	if filepath.IsAbs(path) || opts.ClassesDir == "" {
		return path
	}
	return filepath.Join(opts.ClassesDir, path)
}
