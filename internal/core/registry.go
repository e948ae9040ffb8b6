package core

import (
	"sort"
	"sync"

	"github.com/trovekit/trove/pkg/models"
)

// Registry holds the known actions by name. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry returns an empty action registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action, rejecting duplicate names.
func (r *Registry) Register(action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := action.Name()
	if name == "" {
		return models.NewInvalidInput("action must have a name")
	}
	if _, exists := r.actions[name]; exists {
		return models.NewInvalidInput("action already registered: %s", name)
	}
	r.actions[name] = action
	return nil
}

// MustRegister registers actions and panics on conflict. For use at
// wiring time with statically-named builtins.
func (r *Registry) MustRegister(actions ...Action) {
	for _, action := range actions {
		if err := r.Register(action); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the action with the given name.
func (r *Registry) Lookup(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	if !ok {
		return nil, models.NewInvalidInput("unknown action: %s", name)
	}
	return action, nil
}

// Names returns all registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetadataFetchAction returns the registered action that fetches URL
// metadata, if any.
func (r *Registry) MetadataFetchAction() (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, action := range r.actions {
		if mf, ok := action.(MetadataFetcher); ok && mf.FetchesMetadata() {
			return action, true
		}
	}
	return nil, false
}
