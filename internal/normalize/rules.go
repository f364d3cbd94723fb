package normalize

import (
	"fmt"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
)

type ruleKey struct {
	platform model.Platform
	leadType model.LeadType
}

// rule holds the per-(platform, type) field extractors driving the generic
// mapper. Extractors return "" for fields the lead type does not carry.
type rule struct {
	// channel is the human label in lead titles.
	channel string
	// reference extracts the listing reference used for titles, owner
	// resolution and price lookup.
	reference func(model.RawLead) string
	// name/email/phone extract the contact sub-record.
	name  func(model.RawLead) string
	email func(model.RawLead) string
	phone func(model.RawLead) string
	// comments builds the free-text comment block.
	comments func(model.RawLead) string
	// link extracts the property link, when the type has one.
	link func(model.RawLead) string
	// phoneKey extracts the fallback owner-resolution phone number; nil
	// for types resolved by reference only.
	phoneKey func(model.RawLead) string
}

func none(model.RawLead) string { return "" }

// emailRule maps portal email inquiries; identical on both platforms.
func emailRule() rule {
	return rule{
		channel:   "Email",
		reference: func(l model.RawLead) string { return l.PropertyReference },
		name:      func(l model.RawLead) string { return l.ClientName },
		email:     func(l model.RawLead) string { return l.ClientEmail },
		phone:     func(l model.RawLead) string { return l.ClientPhone },
		comments:  func(l model.RawLead) string { return l.Message },
		link:      func(l model.RawLead) string { return PropertyURL(l.PropertyID) },
	}
}

// chatRule maps WhatsApp leads. Dubizzle embeds the property link in the
// message body behind a "Link:" marker; Bayut carries a listing id instead.
func chatRule(splitLink bool) rule {
	r := rule{
		channel:   "WhatsApp",
		reference: func(l model.RawLead) string { return l.ListingReference },
		name:      func(l model.RawLead) string { return l.Detail.ActorName },
		email:     none,
		phone:     func(l model.RawLead) string { return l.Detail.Cell },
		comments:  func(l model.RawLead) string { return l.Detail.Message },
		link:      func(l model.RawLead) string { return PropertyURL(l.ListingID) },
	}
	if splitLink {
		r.comments = func(l model.RawLead) string {
			message, _ := SplitMessageLink(l.Detail.Message)
			return message
		}
		r.link = func(l model.RawLead) string {
			_, link := SplitMessageLink(l.Detail.Message)
			return link
		}
	}
	return r
}

// callRule maps inbound call logs; the caller number doubles as the contact
// name, and the receiver number is the fallback owner key.
func callRule() rule {
	return rule{
		channel:   "Call",
		reference: func(l model.RawLead) string { return l.ListingReference },
		name:      func(l model.RawLead) string { return l.CallerNumber },
		email:     none,
		phone:     func(l model.RawLead) string { return l.CallerNumber },
		comments:  callComments,
		link:      none,
		phoneKey:  func(l model.RawLead) string { return l.ReceiverNumber },
	}
}

// rules is the full mapping table; combinations missing here surface as
// ErrUnhandled.
var rules = map[ruleKey]rule{
	{model.PlatformBayut, model.LeadTypeEmail}:       emailRule(),
	{model.PlatformBayut, model.LeadTypeWhatsApp}:    chatRule(false),
	{model.PlatformBayut, model.LeadTypeCall}:        callRule(),
	{model.PlatformDubizzle, model.LeadTypeEmail}:    emailRule(),
	{model.PlatformDubizzle, model.LeadTypeWhatsApp}: chatRule(true),
	{model.PlatformDubizzle, model.LeadTypeCall}:     callRule(),
}

// callComments renders the fixed comment template for call leads.
func callComments(l model.RawLead) string {
	return fmt.Sprintf(
		"Receiver Number: %s\nCall Status: %s\nCall Duration: %s\nCall Connected Duration: %s\nCall Recording URL: %s",
		l.ReceiverNumber, l.CallStatus, l.CallTotalDuration, l.CallConnectedDuration, l.CallRecordingURL,
	)
}
