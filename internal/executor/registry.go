// Package executor runs approved and auto-approved actions through
// handlers registered by engine adapters, commits boundary usage on
// success, and attempts compensation on reversible failures.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/avrelio/warden/internal/model"
)

// Handler executes (or compensates) one action type. The payload travels
// inside the action; handlers never see routing state.
type Handler func(ctx context.Context, a *model.Action) error

// Registry maps action types to their execution and rollback handlers.
// Populated by engine adapters at startup.
type Registry struct {
	mu        sync.RWMutex
	handlers  map[string]Handler
	rollbacks map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers:  make(map[string]Handler),
		rollbacks: make(map[string]Handler),
	}
}

// Register binds an execution handler to an action type. Re-registering
// a type replaces the previous handler.
func (r *Registry) Register(actionType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[actionType] = h
}

// RegisterRollback binds a compensating handler to an action type.
// Only consulted for reversible actions whose execution failed.
func (r *Registry) RegisterRollback(actionType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollbacks[actionType] = h
}

// Handler returns the execution handler for an action type.
func (r *Registry) Handler(actionType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[actionType]
	return h, ok
}

// Rollback returns the compensating handler for an action type.
func (r *Registry) Rollback(actionType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.rollbacks[actionType]
	return h, ok
}

// Types returns the registered action types, for the status surface.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

// ErrNoHandler is wrapped into execution failures for unregistered types.
var ErrNoHandler = fmt.Errorf("executor: no handler registered")
