package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// File returns the integer stored in a file. The file is only re-read when
// its size or modification time changes, so replacing it while the agent
// runs redefines the value seen by the sampler.
type File struct {
	path string

	mu      sync.Mutex
	loaded  bool
	modTime time.Time
	size    int64
	value   int
	reloads int
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Reloads reports how many times the file content has been (re)loaded.
func (f *File) Reloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

func (f *File) Get(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat service file: %w", err)
	}

	if f.loaded && info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return f.value, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read service file: %w", err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("service file %s does not hold an integer: %w", f.path, err)
	}

	if f.loaded {
		logrus.Infof("Service file %s changed, value redefined: %d -> %d", f.path, f.value, value)
	} else {
		logrus.Debugf("Service file %s loaded: %d", f.path, value)
	}

	f.loaded = true
	f.modTime = info.ModTime()
	f.size = info.Size()
	f.value = value
	f.reloads++

	return value, nil
}
