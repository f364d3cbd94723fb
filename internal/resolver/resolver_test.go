package resolver

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/directory"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeDirectory is a scriptable directory for resolver tests.
type fakeDirectory struct {
	listing    *directory.Listing
	listingErr error

	byName  int
	byEmail int
	byPhone int
	userErr error

	nameFirst, nameLast string
	phoneExclude        []int
}

func (f *fakeDirectory) LookupListing(context.Context, string) (*directory.Listing, error) {
	return f.listing, f.listingErr
}

func (f *fakeDirectory) LookupUserByName(_ context.Context, first, last string, _ []int) (int, error) {
	f.nameFirst, f.nameLast = first, last
	return f.byName, f.userErr
}

func (f *fakeDirectory) LookupUserByEmail(context.Context, string, []int) (int, error) {
	return f.byEmail, f.userErr
}

func (f *fakeDirectory) LookupUserByPhone(_ context.Context, _ string, exclude []int) (int, error) {
	f.phoneExclude = exclude
	return f.byPhone, f.userErr
}

func (f *fakeDirectory) ListingPrice(context.Context, string) (string, error) {
	return "", nil
}

var testCfg = Config{
	DefaultOwnerID:  500,
	ExcludedUserIDs: []int{3, 268},
	UnknownUserID:   1945,
}

func TestResolveByReference_DirectOwnerID(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{
		listing: &directory.Listing{OwnerID: 77, OwnerName: "Jane Doe", AgentEmail: "jane@example.com"},
		byName:  1, byEmail: 2,
	}
	r := New(dir, testCfg)

	got := r.ResolveByReference(context.Background(), "VW-1")

	assert.Equal(t, 77, got, "direct owner id bypasses name/email lookups")
	assert.Empty(t, dir.nameFirst, "name lookup must not run")
}

func TestResolveByReference_OwnerNameSplit(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{
		listing: &directory.Listing{OwnerName: "Jane Doe"},
		byName:  31,
	}
	r := New(dir, testCfg)

	got := r.ResolveByReference(context.Background(), "VW-1")

	assert.Equal(t, 31, got)
	assert.Equal(t, "Jane", dir.nameFirst)
	assert.Equal(t, "Doe", dir.nameLast)
}

func TestResolveByReference_ThreePartName(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{
		listing: &directory.Listing{OwnerName: "Maria de Silva"},
		byName:  8,
	}
	r := New(dir, testCfg)

	r.ResolveByReference(context.Background(), "VW-1")

	assert.Equal(t, "Maria", dir.nameFirst)
	assert.Equal(t, "de Silva", dir.nameLast)
}

func TestResolveByReference_NameMissFallsThroughToEmail(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{
		listing: &directory.Listing{OwnerName: "Jane Doe", AgentEmail: "jane@example.com"},
		byName:  0, byEmail: 12,
	}
	r := New(dir, testCfg)

	assert.Equal(t, 12, r.ResolveByReference(context.Background(), "VW-1"))
}

func TestResolveByReference_NoOwnerData(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{listing: &directory.Listing{Reference: "VW-1"}}
	r := New(dir, testCfg)

	assert.Equal(t, 500, r.ResolveByReference(context.Background(), "VW-1"))
}

func TestResolveByReference_ListingNotFound(t *testing.T) {
	t.Parallel()

	r := New(&fakeDirectory{}, testCfg)

	assert.Equal(t, 500, r.ResolveByReference(context.Background(), "VW-404"))
}

func TestResolveByReference_LookupError(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{listingErr: eris.New("timeout")}
	r := New(dir, testCfg)

	assert.Equal(t, 500, r.ResolveByReference(context.Background(), "VW-1"))
}

func TestResolveByPhone_Match(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{byPhone: 64}
	r := New(dir, testCfg)

	assert.Equal(t, 64, r.ResolveByPhone(context.Background(), "+97143334444"))
	assert.Equal(t, []int{3, 268}, dir.phoneExclude)
}

func TestResolveByPhone_UnknownUserPlaceholder(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{byPhone: 1945}
	r := New(dir, testCfg)

	assert.Equal(t, 500, r.ResolveByPhone(context.Background(), "+97143334444"))
}

func TestResolveByPhone_NoMatch(t *testing.T) {
	t.Parallel()

	r := New(&fakeDirectory{}, testCfg)

	assert.Equal(t, 500, r.ResolveByPhone(context.Background(), "+97140000000"))
}

func TestResolveByPhone_LookupError(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{userErr: eris.New("boom")}
	r := New(dir, testCfg)

	assert.Equal(t, 500, r.ResolveByPhone(context.Background(), "+97140000000"))
}
