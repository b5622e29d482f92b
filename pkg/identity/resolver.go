package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/propdeskhq/propdesk/pkg/phone"
)

// Kind tags who an inbound contact resolved to.
type Kind string

const (
	KindLead      Kind = "lead"
	KindOwner     Kind = "owner"
	KindUser      Kind = "user"
	KindUnmatched Kind = "unmatched"
)

// Resolved is the outcome of identity resolution.
type Resolved struct {
	Kind Kind `json:"kind"`
	ID   int  `json:"id,omitempty"`
}

// Unmatched is the zero result for contacts nobody claims.
var Unmatched = Resolved{Kind: KindUnmatched}

// Directory is the lookup surface the resolver runs against. Phone lookups
// take a last-10-digits key; email lookups take a lowercased address.
type Directory interface {
	FindLeadByPhone(ctx context.Context, lastTen string) (int, bool, error)
	FindOwnerByPhone(ctx context.Context, lastTen string) (int, bool, error)
	// FindUserByPhone consults active phone assignments only.
	FindUserByPhone(ctx context.Context, lastTen string) (int, bool, error)
	FindLeadByEmail(ctx context.Context, email string) (int, bool, error)
	FindOwnerByEmail(ctx context.Context, email string) (int, bool, error)
	FindUserByEmail(ctx context.Context, email string) (int, bool, error)
}

// Resolver maps an inbound phone number or email address to an internal
// identity. The priority order leads → owners → users is a fixed,
// first-match-wins policy: a phone number shared by a lead and an owner
// always resolves to the lead. That is current documented behavior, not an
// accident of query order.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver over a directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// ResolvePhone resolves a raw phone number. Numbers too short to carry a
// last-10 key still resolve on whatever digits they have; empty input is
// unmatched.
func (r *Resolver) ResolvePhone(ctx context.Context, raw string) (Resolved, error) {
	key := phone.LastTen(raw)
	if key == "" {
		return Unmatched, nil
	}

	if id, ok, err := r.dir.FindLeadByPhone(ctx, key); err != nil {
		return Unmatched, fmt.Errorf("lead lookup failed: %w", err)
	} else if ok {
		return Resolved{Kind: KindLead, ID: id}, nil
	}

	if id, ok, err := r.dir.FindOwnerByPhone(ctx, key); err != nil {
		return Unmatched, fmt.Errorf("owner lookup failed: %w", err)
	} else if ok {
		return Resolved{Kind: KindOwner, ID: id}, nil
	}

	if id, ok, err := r.dir.FindUserByPhone(ctx, key); err != nil {
		return Unmatched, fmt.Errorf("user lookup failed: %w", err)
	} else if ok {
		return Resolved{Kind: KindUser, ID: id}, nil
	}

	return Unmatched, nil
}

// ResolveEmail resolves a raw email address with the same priority order.
func (r *Resolver) ResolveEmail(ctx context.Context, raw string) (Resolved, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return Unmatched, nil
	}

	if id, ok, err := r.dir.FindLeadByEmail(ctx, email); err != nil {
		return Unmatched, fmt.Errorf("lead lookup failed: %w", err)
	} else if ok {
		return Resolved{Kind: KindLead, ID: id}, nil
	}

	if id, ok, err := r.dir.FindOwnerByEmail(ctx, email); err != nil {
		return Unmatched, fmt.Errorf("owner lookup failed: %w", err)
	} else if ok {
		return Resolved{Kind: KindOwner, ID: id}, nil
	}

	if id, ok, err := r.dir.FindUserByEmail(ctx, email); err != nil {
		return Unmatched, fmt.Errorf("user lookup failed: %w", err)
	} else if ok {
		return Resolved{Kind: KindUser, ID: id}, nil
	}

	return Unmatched, nil
}
