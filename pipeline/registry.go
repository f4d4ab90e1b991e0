package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/signature"
	"github.com/hupe1980/voxpipe/stage"
)

// Factory builds a stage for element type t from its configuration.
type Factory func(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error)

// PrefixFactory builds a stage whose name is a registered prefix followed by suffix,
// such as "bitswap" + "4" or "diff" + "3x3x1".
type PrefixFactory func(suffix string, t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error)

// Registry resolves stage names to factories. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	names    map[string]Factory
	prefixes map[string]PrefixFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names:    make(map[string]Factory),
		prefixes: make(map[string]PrefixFactory),
	}
}

// Register adds a factory for an exact stage name.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	r.names[name] = f
	return nil
}

// RegisterPrefix adds a factory for every name that starts with prefix. Exact names
// take precedence; among prefixes the longest match wins.
func (r *Registry) RegisterPrefix(prefix string, f PrefixFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prefixes[prefix]; ok {
		return fmt.Errorf("%w: prefix %q", ErrDuplicateStage, prefix)
	}
	r.prefixes[prefix] = f
	return nil
}

// Names returns the registered names and prefixes, sorted. Prefixes carry a
// trailing "*".
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.names)+len(r.prefixes))
	for n := range r.names {
		out = append(out, n)
	}
	for p := range r.prefixes {
		out = append(out, p+"*")
	}
	slices.Sort(out)
	return out
}

// Build constructs the stage described by st for input type t.
func (r *Registry) Build(st signature.Stage, t dtype.Type, opts ...stage.Option) (stage.Stage, error) {
	r.mu.RLock()
	f, exact := r.names[st.Name]
	var (
		pf     PrefixFactory
		prefix string
	)
	if !exact {
		for p, candidate := range r.prefixes {
			if strings.HasPrefix(st.Name, p) && (pf == nil || len(p) > len(prefix)) {
				pf, prefix = candidate, p
			}
		}
	}
	r.mu.RUnlock()

	cfg := st.Map()
	switch {
	case exact:
		return f(t, cfg, opts...)
	case pf != nil:
		return pf(strings.TrimPrefix(st.Name, prefix), t, cfg, opts...)
	default:
		return nil, &ErrUnknownStageName{Name: st.Name}
	}
}

var builtin = sync.OnceValue(DefaultRegistry)
