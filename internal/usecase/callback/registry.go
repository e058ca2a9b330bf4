package callback

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

// Hook is a named capability invoked with the invoice id after a state
// transition has committed.
type Hook func(ctx context.Context, invoiceID string) error

// Registry maps hook names to registered functions. Populated once at
// process start; invoices reference hooks by name, and unknown names are
// rejected when the invoice is created rather than when the hook fires.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]Hook
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]Hook)}
}

func (r *Registry) Register(name string, hook Hook) error {
	if name == "" || hook == nil {
		return fmt.Errorf("callback registration requires a name and a hook")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.hooks[name]; exists {
		return fmt.Errorf("callback %q already registered", name)
	}
	r.hooks[name] = hook
	return nil
}

func (r *Registry) MustRegister(name string, hook Hook) {
	if err := r.Register(name, hook); err != nil {
		panic(err)
	}
}

func (r *Registry) Resolve(name string) (Hook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.hooks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCallback, name)
	}
	return hook, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
