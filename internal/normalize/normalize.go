// Package normalize maps raw platform leads into the canonical CRM field
// set. One generic mapper covers every (platform, lead type) combination,
// driven by a per-combination rule table.
package normalize

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
)

// ErrUnhandled marks a (platform, lead type) combination with no mapping
// rule. The orchestrator logs and skips these without aborting the batch.
var ErrUnhandled = eris.New("normalize: unhandled platform/type combination")

// noReference is the title placeholder for leads without a listing reference.
const noReference = "No reference"

// unknownName is the placeholder for a missing client name.
const unknownName = "Unknown"

// OwnerResolver resolves owner assignment keys to CRM user ids.
type OwnerResolver interface {
	ResolveByReference(ctx context.Context, reference string) int
	ResolveByPhone(ctx context.Context, phone string) int
	DefaultOwner() int
}

// PriceSource looks up the monetary value of a listing by reference.
type PriceSource interface {
	ListingPrice(ctx context.Context, reference string) (string, error)
}

// Normalizer transforms raw leads into canonical leads, consulting the
// owner resolver and the listing directory.
type Normalizer struct {
	owners OwnerResolver
	prices PriceSource
}

// New creates a Normalizer.
func New(owners OwnerResolver, prices PriceSource) *Normalizer {
	return &Normalizer{owners: owners, prices: prices}
}

// Normalize maps one raw lead to its canonical CRM field set.
func (n *Normalizer) Normalize(ctx context.Context, lead model.RawLead) (*model.CanonicalLead, error) {
	r, ok := rules[ruleKey{platform: lead.Platform, leadType: lead.Type}]
	if !ok {
		return nil, eris.Wrapf(ErrUnhandled, "%s %s", lead.Platform, lead.Type)
	}

	reference := r.reference(lead)
	title := fmt.Sprintf("%s - %s - %s", lead.Platform.Label(), r.channel, orDefault(reference, noReference))

	rawName := r.name(lead)
	contact := model.Contact{
		Name:  orDefault(rawName, title),
		Email: r.email(lead),
		Phone: r.phone(lead),
	}

	return &model.CanonicalLead{
		Title:        title,
		AssignedByID: n.resolveOwner(ctx, r, lead, reference),
		SourceID:     model.SourceChannel(lead.Platform, lead.Type),
		Contact:      contact,
		ClientName:   orDefault(rawName, unknownName),
		Comments:     r.comments(lead),
		PropertyLink: r.link(lead),
		Reference:    reference,
		Opportunity:  n.opportunity(ctx, reference),
	}, nil
}

// resolveOwner picks the owner assignment key for the lead: listing
// reference first, then the call receiver number, then the default owner.
func (n *Normalizer) resolveOwner(ctx context.Context, r rule, lead model.RawLead, reference string) int {
	if reference != "" {
		return n.owners.ResolveByReference(ctx, reference)
	}
	if r.phoneKey != nil {
		if phone := r.phoneKey(lead); phone != "" {
			return n.owners.ResolveByPhone(ctx, phone)
		}
	}
	return n.owners.DefaultOwner()
}

// opportunity looks up the listing price; lookup failures degrade to empty.
func (n *Normalizer) opportunity(ctx context.Context, reference string) string {
	if reference == "" {
		return ""
	}
	price, err := n.prices.ListingPrice(ctx, reference)
	if err != nil {
		zap.L().Warn("normalize: price lookup failed",
			zap.String("reference", reference), zap.Error(err))
		return ""
	}
	return price
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
