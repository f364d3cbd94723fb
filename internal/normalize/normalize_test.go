package normalize

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeOwners records which resolution path ran.
type fakeOwners struct {
	byReference int
	byPhone     int
	defaultID   int

	refKey   string
	phoneUsed string
}

func (f *fakeOwners) ResolveByReference(_ context.Context, reference string) int {
	f.refKey = reference
	return f.byReference
}

func (f *fakeOwners) ResolveByPhone(_ context.Context, phone string) int {
	f.phoneUsed = phone
	return f.byPhone
}

func (f *fakeOwners) DefaultOwner() int { return f.defaultID }

type fakePrices struct {
	price string
	err   error
}

func (f *fakePrices) ListingPrice(context.Context, string) (string, error) {
	return f.price, f.err
}

func newTestNormalizer(owners *fakeOwners, prices *fakePrices) *Normalizer {
	if owners == nil {
		owners = &fakeOwners{defaultID: 500}
	}
	if prices == nil {
		prices = &fakePrices{}
	}
	return New(owners, prices)
}

func TestNormalize_BayutEmail(t *testing.T) {
	t.Parallel()

	owners := &fakeOwners{byReference: 77, defaultID: 500}
	prices := &fakePrices{price: "250000"}
	n := newTestNormalizer(owners, prices)

	lead := model.RawLead{
		LeadID:            "EM-1",
		Platform:          model.PlatformBayut,
		Type:              model.LeadTypeEmail,
		PropertyReference: "VW-100",
		PropertyID:        "881",
		ClientName:        "Jane Doe",
		ClientEmail:       "jane@example.com",
		ClientPhone:       "+97150",
		Message:           "Interested in this property",
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Bayut - Email - VW-100", got.Title)
	assert.Equal(t, 77, got.AssignedByID)
	assert.Equal(t, "10", got.SourceID)
	assert.Equal(t, model.Contact{Name: "Jane Doe", Email: "jane@example.com", Phone: "+97150"}, got.Contact)
	assert.Equal(t, "Jane Doe", got.ClientName)
	assert.Equal(t, "Interested in this property", got.Comments)
	assert.Equal(t, "https://www.bayut.com/property/details-881.html", got.PropertyLink)
	assert.Equal(t, "VW-100", got.Reference)
	assert.Equal(t, "250000", got.Opportunity)
	assert.Equal(t, "VW-100", owners.refKey)
}

func TestNormalize_EmailWithoutReference(t *testing.T) {
	t.Parallel()

	owners := &fakeOwners{defaultID: 500}
	n := newTestNormalizer(owners, nil)

	lead := model.RawLead{
		LeadID:   "EM-2",
		Platform: model.PlatformDubizzle,
		Type:     model.LeadTypeEmail,
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Dubizzle - Email - No reference", got.Title)
	assert.Equal(t, 500, got.AssignedByID, "no reference resolves to the default owner")
	assert.Empty(t, owners.refKey, "reference resolution must not run")
	assert.Equal(t, got.Title, got.Contact.Name, "missing name falls back to the title")
	assert.Equal(t, "Unknown", got.ClientName)
	assert.Empty(t, got.Reference)
	assert.Empty(t, got.Opportunity)
}

func TestNormalize_BayutWhatsApp(t *testing.T) {
	t.Parallel()

	owners := &fakeOwners{byReference: 31, defaultID: 500}
	n := newTestNormalizer(owners, &fakePrices{price: "990000"})

	lead := model.RawLead{
		LeadID:           "WA-1",
		Platform:         model.PlatformBayut,
		Type:             model.LeadTypeWhatsApp,
		ListingReference: "VW-552",
		ListingID:        "7001",
		Detail: model.ChatDetail{
			ActorName: "Sam Lee",
			Cell:      "+97155",
			Message:   "Is it still available?",
		},
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Bayut - WhatsApp - VW-552", got.Title)
	assert.Equal(t, "9", got.SourceID)
	assert.Equal(t, model.Contact{Name: "Sam Lee", Phone: "+97155"}, got.Contact)
	assert.Equal(t, "Is it still available?", got.Comments)
	assert.Equal(t, "https://www.bayut.com/property/details-7001.html", got.PropertyLink)
	assert.Equal(t, "990000", got.Opportunity)
}

func TestNormalize_DubizzleWhatsApp_SplitsLink(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(&fakeOwners{byReference: 8, defaultID: 500}, nil)

	lead := model.RawLead{
		LeadID:           "WA-2",
		Platform:         model.PlatformDubizzle,
		Type:             model.LeadTypeWhatsApp,
		ListingReference: "VW-90",
		Detail: model.ChatDetail{
			Cell:    "+97156",
			Message: "Interested! Link: https://example.com/x",
		},
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Dubizzle - WhatsApp - VW-90", got.Title)
	assert.Equal(t, "12", got.SourceID)
	assert.Equal(t, "Interested!", got.Comments)
	assert.Equal(t, "https://example.com/x", got.PropertyLink)
}

func TestNormalize_DubizzleWhatsApp_NoLinkMarker(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(nil, nil)

	lead := model.RawLead{
		LeadID:   "WA-3",
		Platform: model.PlatformDubizzle,
		Type:     model.LeadTypeWhatsApp,
		Detail:   model.ChatDetail{Message: "Just the message"},
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Just the message", got.Comments)
	assert.Empty(t, got.PropertyLink)
}

func TestNormalize_Call_ByReference(t *testing.T) {
	t.Parallel()

	owners := &fakeOwners{byReference: 42, byPhone: 9, defaultID: 500}
	n := newTestNormalizer(owners, &fakePrices{price: "120000"})

	lead := model.RawLead{
		LeadID:                "CL-1",
		Platform:              model.PlatformBayut,
		Type:                  model.LeadTypeCall,
		ListingReference:      "VW-7",
		CallerNumber:          "+971501112222",
		ReceiverNumber:        "+97143334444",
		CallStatus:            "ANSWER",
		CallTotalDuration:     "00:03:12",
		CallConnectedDuration: "00:02:45",
		CallRecordingURL:      "https://rec.example.com/1.mp3",
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Bayut - Call - VW-7", got.Title)
	assert.Equal(t, 42, got.AssignedByID)
	assert.Equal(t, "11", got.SourceID)
	assert.Equal(t, model.Contact{Name: "+971501112222", Phone: "+971501112222"}, got.Contact)
	assert.Empty(t, owners.phoneUsed, "phone fallback must not run when a reference exists")

	want := "Receiver Number: +97143334444\n" +
		"Call Status: ANSWER\n" +
		"Call Duration: 00:03:12\n" +
		"Call Connected Duration: 00:02:45\n" +
		"Call Recording URL: https://rec.example.com/1.mp3"
	assert.Equal(t, want, got.Comments)
}

func TestNormalize_Call_PhoneFallback(t *testing.T) {
	t.Parallel()

	owners := &fakeOwners{byPhone: 64, defaultID: 500}
	n := newTestNormalizer(owners, nil)

	lead := model.RawLead{
		LeadID:         "CL-2",
		Platform:       model.PlatformDubizzle,
		Type:           model.LeadTypeCall,
		CallerNumber:   "+97150",
		ReceiverNumber: "+97143334444",
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, "Dubizzle - Call - No reference", got.Title)
	assert.Equal(t, 64, got.AssignedByID)
	assert.Equal(t, "14", got.SourceID)
	assert.Equal(t, "+97143334444", owners.phoneUsed)
}

func TestNormalize_Call_NoKeysAtAll(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(&fakeOwners{defaultID: 500}, nil)

	lead := model.RawLead{
		LeadID:   "CL-3",
		Platform: model.PlatformBayut,
		Type:     model.LeadTypeCall,
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Equal(t, 500, got.AssignedByID)
	assert.Equal(t, got.Title, got.Contact.Name)
	assert.Equal(t, "Unknown", got.ClientName)
}

func TestNormalize_PriceLookupFailure(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(&fakeOwners{byReference: 1, defaultID: 500}, &fakePrices{err: eris.New("timeout")})

	lead := model.RawLead{
		LeadID:            "EM-9",
		Platform:          model.PlatformBayut,
		Type:              model.LeadTypeEmail,
		PropertyReference: "VW-1",
	}

	got, err := n.Normalize(context.Background(), lead)
	require.NoError(t, err)

	assert.Empty(t, got.Opportunity, "price lookup failure degrades to empty")
}

func TestNormalize_UnhandledCombination(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(nil, nil)

	lead := model.RawLead{
		LeadID:   "X-1",
		Platform: model.Platform("propertyfinder"),
		Type:     model.LeadTypeEmail,
	}

	_, err := n.Normalize(context.Background(), lead)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnhandled)
}
