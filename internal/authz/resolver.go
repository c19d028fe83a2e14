// Package authz decides whether a role may act on a resource key. It holds
// no workflow knowledge; the grant table is supplied from outside and can
// be swapped at runtime.
package authz

import (
	"sync"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// Decision is the outcome of a permission check, resolved before any
// mutation proceeds.
type Decision struct {
	Granted bool
	Reason  string
}

func Allow() Decision { return Decision{Granted: true} }

func Deny(reason string) Decision { return Decision{Reason: reason} }

// Resolver maps (role, resource key) to allow/deny. Admin is always
// allowed without a table lookup; a role missing from the table denies
// everything.
type Resolver struct {
	mu     sync.RWMutex
	grants map[domain.UserRole]map[string]struct{}
}

func NewResolver() *Resolver {
	return &Resolver{grants: map[domain.UserRole]map[string]struct{}{}}
}

// Replace swaps the whole grant table, e.g. after a refresh from storage.
func (r *Resolver) Replace(grants map[domain.UserRole][]string) {
	next := make(map[domain.UserRole]map[string]struct{}, len(grants))
	for role, keys := range grants {
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[k] = struct{}{}
		}
		next[role] = set
	}
	r.mu.Lock()
	r.grants = next
	r.mu.Unlock()
}

// Resolve checks a single grant.
func (r *Resolver) Resolve(role domain.UserRole, resource string) Decision {
	if role == domain.RoleAdmin {
		return Allow()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.grants[role]
	if !ok {
		return Deny("role " + string(role) + " has no grants")
	}
	if _, ok := set[resource]; !ok {
		return Deny("role " + string(role) + " lacks " + resource)
	}
	return Allow()
}
