package model

// sourceChannels maps (platform, lead type) to the CRM source identifier.
// The ids are fixed in the CRM's source enumeration and never change at
// runtime.
var sourceChannels = map[Platform]map[LeadType]string{
	PlatformBayut: {
		LeadTypeCall:     "11",
		LeadTypeEmail:    "10",
		LeadTypeWhatsApp: "9",
	},
	PlatformDubizzle: {
		LeadTypeCall:     "14",
		LeadTypeEmail:    "13",
		LeadTypeWhatsApp: "12",
	},
}

// SourceChannel returns the CRM source id for a platform/type pair, or ""
// for an unknown combination.
func SourceChannel(p Platform, t LeadType) string {
	return sourceChannels[p][t]
}
