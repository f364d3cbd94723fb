// Package directory looks up listings and users in the CRM's system of
// record for property metadata.
package directory

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/pkg/bitrix"
)

// Listing field codes on the listings smart process.
const (
	fieldReference  = "ufCrm12ReferenceNumber"
	fieldOwnerID    = "ufCrm12OwnerId"
	fieldOwnerName  = "ufCrm12ListingOwner"
	fieldAgentEmail = "ufCrm12AgentEmail"
	fieldPrice      = "ufCrm12Price"
)

// Listing is the directory record for one property reference.
type Listing struct {
	Reference  string
	OwnerID    int
	OwnerName  string
	AgentEmail string
	Price      string
}

// Directory defines the lookup operations used by owner resolution and
// price enrichment. User lookups return 0 when no active user matches.
type Directory interface {
	LookupListing(ctx context.Context, reference string) (*Listing, error)
	LookupUserByName(ctx context.Context, first, last string, exclude []int) (int, error)
	LookupUserByEmail(ctx context.Context, email string, exclude []int) (int, error)
	LookupUserByPhone(ctx context.Context, phone string, exclude []int) (int, error)
	ListingPrice(ctx context.Context, reference string) (string, error)
}

// Config holds directory settings.
type Config struct {
	// ListingsEntityTypeID is the smart-process entity type holding listings.
	ListingsEntityTypeID int
}

type crmDirectory struct {
	crm bitrix.Client
	cfg Config
}

// New creates a Directory backed by the CRM client.
func New(crm bitrix.Client, cfg Config) Directory {
	return &crmDirectory{crm: crm, cfg: cfg}
}

func (d *crmDirectory) LookupListing(ctx context.Context, reference string) (*Listing, error) {
	items, err := d.crm.ListItems(ctx, d.cfg.ListingsEntityTypeID,
		map[string]any{fieldReference: reference},
		[]string{fieldReference, fieldAgentEmail, fieldOwnerName, fieldOwnerID, fieldPrice},
	)
	if err != nil {
		return nil, eris.Wrapf(err, "directory: list listings for %s", reference)
	}
	if len(items) == 0 {
		return nil, nil
	}

	// First matching listing wins.
	item := items[0]
	return &Listing{
		Reference:  asString(item[fieldReference]),
		OwnerID:    asInt(item[fieldOwnerID]),
		OwnerName:  asString(item[fieldOwnerName]),
		AgentEmail: asString(item[fieldAgentEmail]),
		Price:      asString(item[fieldPrice]),
	}, nil
}

func (d *crmDirectory) LookupUserByName(ctx context.Context, first, last string, exclude []int) (int, error) {
	return d.firstUser(ctx, map[string]any{
		"%NAME":      first,
		"%LAST_NAME": last,
		"!ID":        exclude,
	})
}

func (d *crmDirectory) LookupUserByEmail(ctx context.Context, email string, exclude []int) (int, error) {
	return d.firstUser(ctx, map[string]any{
		"EMAIL": email,
		"!ID":   exclude,
	})
}

func (d *crmDirectory) LookupUserByPhone(ctx context.Context, phone string, exclude []int) (int, error) {
	return d.firstUser(ctx, map[string]any{
		"%PERSONAL_MOBILE": phone,
		"!ID":              exclude,
	})
}

// firstUser returns the id of the first user matching the filter, or 0 when
// none match.
func (d *crmDirectory) firstUser(ctx context.Context, filter map[string]any) (int, error) {
	users, err := d.crm.GetUsers(ctx, filter)
	if err != nil {
		return 0, eris.Wrap(err, "directory: get users")
	}
	if len(users) == 0 {
		return 0, nil
	}

	id, err := strconv.Atoi(strings.TrimSpace(users[0].ID))
	if err != nil {
		return 0, eris.Wrapf(err, "directory: non-numeric user id %q", users[0].ID)
	}
	return id, nil
}

func (d *crmDirectory) ListingPrice(ctx context.Context, reference string) (string, error) {
	listing, err := d.LookupListing(ctx, reference)
	if err != nil {
		return "", err
	}
	if listing == nil {
		return "", nil
	}
	return listing.Price, nil
}

// asString renders a CRM field value, which may arrive as a string or a
// JSON number.
func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return ""
}

// asInt parses a CRM field value as an integer id; 0 when absent or
// non-numeric.
func asInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return id
	}
	return 0
}
