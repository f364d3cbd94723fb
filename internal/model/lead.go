package model

// Platform identifies the listing portal a lead was ingested from.
type Platform string

const (
	PlatformBayut    Platform = "bayut"
	PlatformDubizzle Platform = "dubizzle"
)

// AllPlatforms is the fixed platform processing order for a run.
var AllPlatforms = []Platform{PlatformBayut, PlatformDubizzle}

// Label returns the capitalized portal name used in lead titles.
func (p Platform) Label() string {
	switch p {
	case PlatformBayut:
		return "Bayut"
	case PlatformDubizzle:
		return "Dubizzle"
	}
	return string(p)
}

// LeadType identifies the kind of lead a feed batch carries. The values are
// the feed API's type parameters.
type LeadType string

const (
	LeadTypeCall     LeadType = "call_logs"
	LeadTypeEmail    LeadType = "leads"
	LeadTypeWhatsApp LeadType = "whatsapp_leads"
)

// AllLeadTypes is the fixed per-platform processing order for a run.
var AllLeadTypes = []LeadType{LeadTypeCall, LeadTypeEmail, LeadTypeWhatsApp}

// ChatDetail is the nested payload carried by WhatsApp leads.
type ChatDetail struct {
	ActorName string `json:"actor_name"`
	Cell      string `json:"cell"`
	Message   string `json:"message"`
}

// RawLead is one record from a platform feed. The payload is the union of
// the per-type feed fields; only the fields for the lead's type are set.
// Platform and Type are stamped by the feed client, not the wire payload.
type RawLead struct {
	LeadID   string   `json:"lead_id"`
	Platform Platform `json:"-"`
	Type     LeadType `json:"-"`

	// Email inquiries.
	PropertyReference string `json:"property_reference,omitempty"`
	PropertyID        string `json:"property_id,omitempty"`
	ClientName        string `json:"client_name,omitempty"`
	ClientEmail       string `json:"client_email,omitempty"`
	ClientPhone       string `json:"client_phone,omitempty"`
	Message           string `json:"message,omitempty"`

	// WhatsApp messages.
	ListingReference string     `json:"listing_reference,omitempty"`
	ListingID        string     `json:"listing_id,omitempty"`
	Detail           ChatDetail `json:"detail,omitempty"`

	// Inbound calls.
	CallerNumber          string `json:"caller_number,omitempty"`
	ReceiverNumber        string `json:"receiver_number,omitempty"`
	CallStatus            string `json:"call_status,omitempty"`
	CallTotalDuration     string `json:"call_total_duration,omitempty"`
	CallConnectedDuration string `json:"call_connected_duration,omitempty"`
	CallRecordingURL      string `json:"call_recordingurl,omitempty"`
	Date                  string `json:"date,omitempty"`
	Time                  string `json:"time,omitempty"`
}

// Contact is the contact sub-record attached to a canonical lead.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CanonicalLead is the normalized representation ready for CRM submission.
// AssignedByID is always populated; unresolved references and prices are
// empty strings, never absent.
type CanonicalLead struct {
	Title        string  `json:"title"`
	AssignedByID int     `json:"assigned_by_id"`
	SourceID     string  `json:"source_id"`
	Contact      Contact `json:"contact"`
	ClientName   string  `json:"client_name"`
	Comments     string  `json:"comments"`
	PropertyLink string  `json:"property_link,omitempty"`
	Reference    string  `json:"reference"`
	Opportunity  string  `json:"opportunity,omitempty"`
	ContactID    int     `json:"contact_id,omitempty"`
}
