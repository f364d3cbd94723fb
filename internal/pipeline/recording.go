package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/normalize"
)

// attachRecording downloads a call recording and attaches it to the lead
// through the telephony API. The lead is already committed, so every
// failure here is logged and swallowed.
func (p *Pipeline) attachRecording(ctx context.Context, lead model.RawLead, canonical *model.CanonicalLead, crmLeadID int) {
	log := zap.L().With(
		zap.String("lead_id", lead.LeadID),
		zap.Int("crm_lead_id", crmLeadID),
	)

	if lead.CallRecordingURL == "" || lead.CallRecordingURL == "None" {
		log.Debug("pipeline: no recording to attach")
		return
	}

	content, err := p.feed.FetchBinary(ctx, lead.CallRecordingURL)
	if err != nil {
		log.Warn("pipeline: recording download failed", zap.Error(err))
		return
	}

	reg, err := p.crm.RegisterCall(ctx, map[string]any{
		"USER_PHONE_INNER": lead.ReceiverNumber,
		"USER_ID":          canonical.AssignedByID,
		"PHONE_NUMBER":     lead.CallerNumber,
		"CALL_START_DATE":  lead.Date + " " + lead.Time,
		"CRM_CREATE":       false,
		"CRM_SOURCE":       canonical.SourceID,
		"CRM_ENTITY_TYPE":  "LEAD",
		"CRM_ENTITY_ID":    crmLeadID,
		"SHOW":             false,
		"TYPE":             2,
		"LINE_NUMBER":      lead.Platform.Label() + " " + lead.ReceiverNumber,
	})
	if err != nil {
		log.Warn("pipeline: call registration failed", zap.Error(err))
		return
	}

	duration, err := normalize.DurationSeconds(lead.CallConnectedDuration)
	if err != nil {
		log.Warn("pipeline: unparseable call duration",
			zap.String("duration", lead.CallConnectedDuration), zap.Error(err))
		duration = 0
	}

	if err := p.crm.FinishCall(ctx, map[string]any{
		"CALL_ID":     reg.CallID,
		"USER_ID":     canonical.AssignedByID,
		"DURATION":    duration,
		"STATUS_CODE": 200,
	}); err != nil {
		log.Warn("pipeline: call finish failed", zap.Error(err))
		return
	}

	filename := fmt.Sprintf("%s|call%s.mp3", lead.LeadID, uuid.NewString())
	if err := p.crm.AttachRecord(ctx, reg.CallID, filename, content); err != nil {
		log.Warn("pipeline: recording attach failed", zap.Error(err))
		return
	}

	log.Info("pipeline: recording attached", zap.String("call_id", reg.CallID))
}
