// Package auth provides the authorization policies consulted before every
// registry mutation.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/zjrosen/intreg/internal/log"
	"github.com/zjrosen/intreg/internal/registry/domain"
)

// OwnerPolicy admits exactly one administrator identity.
// A policy with a zero owner admits nobody.
type OwnerPolicy struct {
	mu    sync.RWMutex
	owner domain.Address
}

// NewOwnerPolicy creates a policy administered by owner.
func NewOwnerPolicy(owner domain.Address) *OwnerPolicy {
	return &OwnerPolicy{owner: owner}
}

var _ domain.Authorizer = (*OwnerPolicy)(nil)

// Owner returns the current administrator.
func (p *OwnerPolicy) Owner() domain.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.owner
}

// Authorize returns domain.ErrNotOwner unless caller is the administrator.
func (p *OwnerPolicy) Authorize(_ context.Context, caller domain.Address) error {
	p.mu.RLock()
	owner := p.owner
	p.mu.RUnlock()

	if owner.IsZero() || caller != owner {
		log.Warn(log.CatAuth, "caller rejected", "caller", caller)
		return fmt.Errorf("caller %s: %w", caller, domain.ErrNotOwner)
	}
	return nil
}

// TransferOwnership hands the administrator role to newOwner.
// Only the current owner may call it and newOwner must not be zero.
func (p *OwnerPolicy) TransferOwnership(ctx context.Context, caller, newOwner domain.Address) error {
	if err := p.Authorize(ctx, caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return domain.ErrZeroOwner
	}

	p.mu.Lock()
	previous := p.owner
	p.owner = newOwner
	p.mu.Unlock()

	log.Info(log.CatAuth, "OwnershipTransferred", "previous", previous, "new", newOwner)
	return nil
}

// RenounceOwnership leaves the registry without an administrator.
// Every later mutation is rejected.
func (p *OwnerPolicy) RenounceOwnership(ctx context.Context, caller domain.Address) error {
	if err := p.Authorize(ctx, caller); err != nil {
		return err
	}

	p.mu.Lock()
	previous := p.owner
	p.owner = domain.ZeroAddress
	p.mu.Unlock()

	log.Info(log.CatAuth, "OwnershipTransferred", "previous", previous, "new", domain.ZeroAddress)
	return nil
}
