// Package adapter translates producer-specific requests into canonical
// actions and registers the producer's executors. Adapters construct
// actions and provide handlers; they never route, and they never bypass
// routing.
package adapter

import (
	"fmt"
	"sync"

	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
)

// EngineAdapter is the fixed contract every producer category implements.
type EngineAdapter interface {
	// Category identifies which action category this adapter produces.
	Category() model.Category

	// Translate maps a domain request into a canonical Action.
	// The request type is adapter-specific; a mismatched type is an error.
	Translate(request any) (*model.Action, error)

	// RegisterExecutors binds the producer's execution (and rollback)
	// handlers for the action types this adapter emits.
	RegisterExecutors(reg *executor.Registry)
}

// Registry holds the adapters configured at startup. A missing adapter
// for a category is a normal, non-fatal configuration state; the engine
// simply has no producer for that category.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Category]EngineAdapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[model.Category]EngineAdapter)}
}

// Register installs an adapter and its executors.
func (r *Registry) Register(a EngineAdapter, reg *executor.Registry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[a.Category()]; exists {
		return fmt.Errorf("adapter: category %s already registered", a.Category())
	}
	r.adapters[a.Category()] = a
	a.RegisterExecutors(reg)
	return nil
}

// Lookup returns the adapter for a category, if configured.
func (r *Registry) Lookup(category model.Category) (EngineAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[category]
	return a, ok
}

// Categories returns the categories with a configured adapter.
func (r *Registry) Categories() []model.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Category
	for _, c := range model.Categories {
		if _, ok := r.adapters[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
