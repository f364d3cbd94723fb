package pipeline

import (
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
)

// Portal-specific user-field codes on the CRM lead entity.
const (
	fieldClientName = "UF_CRM_1735998755830"
	fieldLink       = "UF_CRM_1735997531807"
	fieldReference  = "UF_CRM_1735998202607"
	fieldEmail      = "UF_CRM_1742891769875"
	fieldPhone      = "UF_CRM_1742891784021"
)

// multiField wraps a value in the CRM's multi-value field shape.
func multiField(value string) []map[string]any {
	return []map[string]any{{"VALUE": value, "VALUE_TYPE": "WORK"}}
}

// contactFields builds the crm.contact.add payload for a lead's contact.
func contactFields(lead *model.CanonicalLead) map[string]any {
	fields := map[string]any{
		"NAME":           lead.Contact.Name,
		"SOURCE_ID":      lead.SourceID,
		"ASSIGNED_BY_ID": lead.AssignedByID,
	}
	if lead.Contact.Email != "" {
		fields["EMAIL"] = multiField(lead.Contact.Email)
	}
	if lead.Contact.Phone != "" {
		fields["PHONE"] = multiField(lead.Contact.Phone)
	}
	return fields
}

// leadFields builds the crm.lead.add payload for a canonical lead.
func leadFields(lead *model.CanonicalLead) map[string]any {
	fields := map[string]any{
		"TITLE":          lead.Title,
		"SOURCE_ID":      lead.SourceID,
		"ASSIGNED_BY_ID": lead.AssignedByID,
		"COMMENTS":       lead.Comments,
		"CONTACT_ID":     lead.ContactID,
		fieldClientName:  lead.ClientName,
		fieldReference:   lead.Reference,
	}
	if lead.Contact.Email != "" {
		fields[fieldEmail] = lead.Contact.Email
	}
	if lead.Contact.Phone != "" {
		fields[fieldPhone] = lead.Contact.Phone
	}
	if lead.PropertyLink != "" {
		fields[fieldLink] = lead.PropertyLink
	}
	if lead.Opportunity != "" {
		fields["OPPORTUNITY"] = lead.Opportunity
	}
	return fields
}
