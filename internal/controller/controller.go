// Package controller provides Controller collaborators: the authority the
// registry asks whether an address is a currently valid module.
package controller

import (
	"context"
	"sync"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

// Static is a fixed module set. Enable and Disable change it at runtime.
type Static struct {
	mu      sync.RWMutex
	modules map[domain.Address]struct{}
}

// NewStatic creates a controller recognizing modules.
func NewStatic(modules ...domain.Address) *Static {
	s := &Static{modules: make(map[domain.Address]struct{}, len(modules))}
	for _, m := range modules {
		s.modules[m] = struct{}{}
	}
	return s
}

var _ domain.Controller = (*Static)(nil)

// IsModule reports whether module is in the set.
func (s *Static) IsModule(_ context.Context, module domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.modules[module]
	return ok, nil
}

// Enable adds module to the set.
func (s *Static) Enable(module domain.Address) {
	s.mu.Lock()
	s.modules[module] = struct{}{}
	s.mu.Unlock()
}

// Disable removes module from the set. Existing bindings are unaffected.
func (s *Static) Disable(module domain.Address) {
	s.mu.Lock()
	delete(s.modules, module)
	s.mu.Unlock()
}

// Func adapts a plain function to domain.Controller.
type Func func(ctx context.Context, module domain.Address) (bool, error)

// IsModule calls f.
func (f Func) IsModule(ctx context.Context, module domain.Address) (bool, error) {
	return f(ctx, module)
}
