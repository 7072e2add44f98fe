// Package converter post-processes downloaded checkpoints that are not
// directly loadable by the runtime. A source names its converter in the
// catalog; sources without one skip this step entirely.
package converter

import (
	"fmt"
	"sort"
	"sync"
)

// Converter maps a downloaded checkpoint in srcDir into the runtime layout
// under dstDir. srcDir is a staging directory owned by the caller and is
// removed after the call, success or not.
type Converter interface {
	Name() string
	Convert(srcDir, dstDir string) error
}

var (
	mu       sync.RWMutex
	registry = map[string]Converter{}
)

// Register makes a converter available by name. Later registrations with
// the same name win.
func Register(c Converter) {
	mu.Lock()
	defer mu.Unlock()
	registry[c.Name()] = c
}

// Get returns the named converter.
func Get(name string) (Converter, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown converter %q (available: %v)", name, names())
	}
	return c, nil
}

func names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
