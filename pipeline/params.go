package pipeline

import (
	"errors"
	"maps"
	"slices"
	"strconv"

	"github.com/hupe1980/voxpipe/stage"
)

var errUnknownKey = errors.New("unknown key")

// params reads a stage configuration and tracks which keys were consumed.
type params struct {
	stage string
	m     map[string]string
	used  map[string]bool
}

func newParams(stage string, m map[string]string) *params {
	return &params{stage: stage, m: m, used: make(map[string]bool, len(m))}
}

func (p *params) lookup(key string) (string, bool) {
	v, ok := p.m[key]
	if ok {
		p.used[key] = true
	}
	return v, ok
}

func (p *params) str(key, def string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}
	return def
}

func (p *params) int(key string, def int) (int, error) {
	v, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, stage.NewConfigError(p.stage, key, v, err)
	}
	return n, nil
}

func (p *params) float(key string, def float64) (float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, stage.NewConfigError(p.stage, key, v, err)
	}
	return f, nil
}

// finish rejects keys no lookup asked for.
func (p *params) finish() error {
	for _, k := range slices.Sorted(maps.Keys(p.m)) {
		if !p.used[k] {
			return stage.NewConfigError(p.stage, k, p.m[k], errUnknownKey)
		}
	}
	return nil
}
