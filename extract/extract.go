// Package extract defines the extraction strategy contract and the
// registry that resolves a source descriptor to a strategy. Strategies
// fetch one source and map whatever shape it exposes into model.Events;
// retry and failure accounting belong to the coordinator, not here.
package extract

import (
	"context"
	"net/http"
	"sync"

	"venuefeed/model"
)

// Strategy extracts events from a single source. Implementations must
// not retry internally, and must drop individually-malformed candidate
// records rather than failing the whole batch; they return an error only
// when no structural result is possible.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, client *http.Client, src model.Source) ([]model.Event, error)
}

// Registry resolves sources to strategies. Resolution is two-tier:
// a per-source-key override wins over the generic shape-tag table.
// Registration happens once at startup; Resolve is safe for concurrent
// use afterwards.
type Registry struct {
	mu        sync.RWMutex
	shapes    map[string]Strategy
	overrides map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		shapes:    make(map[string]Strategy),
		overrides: make(map[string]Strategy),
	}
}

// RegisterShape registers the generic strategy for a shape tag.
func (r *Registry) RegisterShape(tag string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shapes[tag] = s
}

// RegisterOverride registers a bespoke strategy for one source key,
// taking precedence over whatever shape the source declares.
func (r *Registry) RegisterOverride(key string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[key] = s
}

// Resolve returns the strategy for src. A miss in both tiers is a
// configuration error, raised before any network I/O is attempted.
func (r *Registry) Resolve(src model.Source) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.overrides[src.Key]; ok {
		return s, nil
	}
	if s, ok := r.shapes[src.Shape]; ok {
		return s, nil
	}
	return nil, model.Tagf(model.KindUnresolvedStrategy,
		"no strategy for source %q (shape %q)", src.Key, src.Shape)
}

// DefaultRegistry returns a registry with the built-in strategy
// families registered under the shape tags site configs use.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterShape("html", &HTML{})
	r.RegisterShape("wordpress", &WordPress{})
	r.RegisterShape("ajax", &Ajax{})
	r.RegisterShape("json-ld", &JSONLD{})
	return r
}
