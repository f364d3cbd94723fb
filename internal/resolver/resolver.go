// Package resolver determines the CRM user responsible for a lead.
package resolver

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/directory"
)

// Config holds the owner-resolution constants.
type Config struct {
	// DefaultOwnerID is the fallback of last resort; resolution never
	// returns 0.
	DefaultOwnerID int
	// ExcludedUserIDs are system/service accounts excluded from every user
	// lookup.
	ExcludedUserIDs []int
	// UnknownUserID is the placeholder account phone lookups can land on;
	// it is treated as no match.
	UnknownUserID int
}

// Resolver resolves listing references and phone numbers to owner ids with
// a deterministic fallback chain. It never fails outward: lookup errors are
// logged and fall back to the default owner.
type Resolver struct {
	dir directory.Directory
	cfg Config
}

// New creates a Resolver.
func New(dir directory.Directory, cfg Config) *Resolver {
	return &Resolver{dir: dir, cfg: cfg}
}

// DefaultOwner returns the configured fallback owner id.
func (r *Resolver) DefaultOwner() int {
	return r.cfg.DefaultOwnerID
}

// ResolveByReference resolves a listing reference to an owner id:
// directly-assigned owner id, then owner name, then agent email, then the
// default owner.
func (r *Resolver) ResolveByReference(ctx context.Context, reference string) int {
	log := zap.L().With(zap.String("reference", reference))

	listing, err := r.dir.LookupListing(ctx, reference)
	if err != nil {
		log.Warn("resolver: listing lookup failed, using default owner", zap.Error(err))
		return r.cfg.DefaultOwnerID
	}
	if listing == nil {
		log.Warn("resolver: no listing found, using default owner")
		return r.cfg.DefaultOwnerID
	}

	if listing.OwnerID > 0 {
		return listing.OwnerID
	}

	if listing.OwnerName != "" {
		first, last := splitName(listing.OwnerName)
		id, err := r.dir.LookupUserByName(ctx, first, last, r.cfg.ExcludedUserIDs)
		if err != nil {
			log.Warn("resolver: user lookup by name failed", zap.String("owner_name", listing.OwnerName), zap.Error(err))
		} else if id > 0 {
			return id
		}
	}

	if listing.AgentEmail != "" {
		id, err := r.dir.LookupUserByEmail(ctx, listing.AgentEmail, r.cfg.ExcludedUserIDs)
		if err != nil {
			log.Warn("resolver: user lookup by email failed", zap.String("agent_email", listing.AgentEmail), zap.Error(err))
		} else if id > 0 {
			return id
		}
	}

	log.Info("resolver: listing has no resolvable owner, using default owner")
	return r.cfg.DefaultOwnerID
}

// ResolveByPhone resolves a receiver phone number to an owner id by a
// contains-match on active users' mobile numbers. The unknown-user
// placeholder counts as no match.
func (r *Resolver) ResolveByPhone(ctx context.Context, phone string) int {
	id, err := r.dir.LookupUserByPhone(ctx, phone, r.cfg.ExcludedUserIDs)
	if err != nil {
		zap.L().Warn("resolver: user lookup by phone failed, using default owner",
			zap.String("phone", phone), zap.Error(err))
		return r.cfg.DefaultOwnerID
	}
	if id == 0 || id == r.cfg.UnknownUserID {
		return r.cfg.DefaultOwnerID
	}
	return id
}

// splitName splits a "First Last" display name on the first space; the
// remainder is the last name.
func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
