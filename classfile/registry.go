package classfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Class is a parsed class file known to the agent.
type Class struct {
	Signature string
	Path      string
	Size      int64
	ModTime   time.Time
	File      *ClassFile
}

// Registry maps class signatures (e.g. "LService;") to loaded classes.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Put stores c under its signature, replacing any earlier entry.
func (r *Registry) Put(c *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[c.Signature] = c
}

func (r *Registry) Get(signature string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[signature]
	return c, ok
}

// Signatures returns the known signatures in sorted order.
func (r *Registry) Signatures() []string {
	r.mu.RLock()
	keys := lo.Keys(r.classes)
	r.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// LoadFile parses a single class file and registers it.
func (r *Registry) LoadFile(path string) (*Class, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	cf, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	c := &Class{
		Signature: cf.Signature(),
		Path:      path,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		File:      cf,
	}
	r.Put(c)
	return c, nil
}

// ScanDir registers every *.class file below dir and returns how many were
// loaded. Files that fail to parse are logged and skipped.
func (r *Registry) ScanDir(dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to open classes directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("classes directory %s is not a directory", dir)
	}

	loaded := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".class") {
			return nil
		}

		c, err := r.LoadFile(path)
		if err != nil {
			logrus.Warnf("Skipping class file %s: %v", path, err)
			return nil
		}

		logrus.Infof("class loaded: %s", c.Signature)
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("failed to scan classes directory: %w", err)
	}

	return loaded, nil
}
