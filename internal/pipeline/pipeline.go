// Package pipeline orchestrates a full lead-ingestion run: fetch every
// (platform, type) batch, then deduplicate, normalize and submit each lead
// to the CRM in a fixed order.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/feed"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/ledger"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/normalize"
	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/pkg/bitrix"
)

// batchKey identifies one fetched (platform, type) batch.
type batchKey struct {
	platform model.Platform
	leadType model.LeadType
}

// BatchCount tallies the outcomes for one (platform, type) batch.
type BatchCount struct {
	Platform   model.Platform
	Type       model.LeadType
	Fetched    int
	Created    int
	Duplicates int
	Unhandled  int
	Failed     int
}

// Summary aggregates per-batch counts for a run, in processing order.
type Summary struct {
	Batches []BatchCount
}

// Created returns the total number of CRM leads created across all batches.
func (s *Summary) Created() int {
	var total int
	for _, b := range s.Batches {
		total += b.Created
	}
	return total
}

// Failed returns the total number of leads that failed submission.
func (s *Summary) Failed() int {
	var total int
	for _, b := range s.Batches {
		total += b.Failed
	}
	return total
}

// Pipeline wires the feed, the normalizer, the dedup ledger and the CRM
// client into one run loop.
type Pipeline struct {
	feed   feed.Client
	crm    bitrix.Client
	norm   *normalize.Normalizer
	ledger ledger.Ledger
	since  string
}

// New creates a Pipeline with all dependencies.
func New(feedClient feed.Client, crmClient bitrix.Client, norm *normalize.Normalizer, led ledger.Ledger, since string) *Pipeline {
	return &Pipeline{
		feed:   feedClient,
		crm:    crmClient,
		norm:   norm,
		ledger: led,
		since:  since,
	}
}

// Run executes one ingestion pass. Batches are fetched concurrently; a
// fetch failure degrades that batch to empty rather than aborting the run.
// Processing is sequential so ledger appends keep a single writer.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	log := zap.L().With(zap.String("since", p.since))
	log.Info("pipeline: starting run")

	if err := p.ledger.Load(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: load ledger")
	}
	log.Info("pipeline: ledger loaded", zap.Int("known_leads", p.ledger.Count()))

	batches := p.fetchAll(ctx)

	summary := &Summary{}
	for _, platform := range model.AllPlatforms {
		for _, leadType := range model.AllLeadTypes {
			leads := batches[batchKey{platform, leadType}]
			count := p.processBatch(ctx, platform, leadType, leads)
			summary.Batches = append(summary.Batches, count)
		}
	}

	log.Info("pipeline: run finished",
		zap.Int("created", summary.Created()),
		zap.Int("failed", summary.Failed()),
	)
	return summary, nil
}

// fetchAll retrieves every (platform, type) batch concurrently. Failed
// fetches are logged and yield empty batches.
func (p *Pipeline) fetchAll(ctx context.Context) map[batchKey][]model.RawLead {
	var mu sync.Mutex
	batches := make(map[batchKey][]model.RawLead, len(model.AllPlatforms)*len(model.AllLeadTypes))

	g, gctx := errgroup.WithContext(ctx)
	for _, platform := range model.AllPlatforms {
		for _, leadType := range model.AllLeadTypes {
			key := batchKey{platform, leadType}
			g.Go(func() error {
				leads, err := p.feed.FetchLeads(gctx, key.platform, key.leadType, p.since)
				if err != nil {
					zap.L().Error("pipeline: fetch failed, continuing with empty batch",
						zap.String("platform", string(key.platform)),
						zap.String("type", string(key.leadType)),
						zap.Error(err),
					)
					return nil
				}
				zap.L().Info("pipeline: batch fetched",
					zap.String("platform", string(key.platform)),
					zap.String("type", string(key.leadType)),
					zap.Int("count", len(leads)),
				)
				mu.Lock()
				batches[key] = leads
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return batches
}

// processBatch runs every lead of one batch through dedup, normalization
// and CRM submission, tallying the outcomes.
func (p *Pipeline) processBatch(ctx context.Context, platform model.Platform, leadType model.LeadType, leads []model.RawLead) BatchCount {
	count := BatchCount{Platform: platform, Type: leadType, Fetched: len(leads)}
	log := zap.L().With(
		zap.String("platform", string(platform)),
		zap.String("type", string(leadType)),
	)

	for _, lead := range leads {
		switch err := p.processLead(ctx, lead); {
		case err == nil:
			count.Created++
		case errors.Is(err, errDuplicate):
			count.Duplicates++
		case errors.Is(err, normalize.ErrUnhandled):
			count.Unhandled++
			log.Warn("pipeline: unhandled lead variant skipped",
				zap.String("lead_id", lead.LeadID))
		default:
			count.Failed++
			log.Error("pipeline: lead failed",
				zap.String("lead_id", lead.LeadID), zap.Error(err))
		}
	}

	log.Info("pipeline: batch processed",
		zap.Int("fetched", count.Fetched),
		zap.Int("created", count.Created),
		zap.Int("duplicates", count.Duplicates),
		zap.Int("failed", count.Failed),
	)
	return count
}

// errDuplicate is the internal skip signal for already-processed leads.
var errDuplicate = eris.New("pipeline: duplicate lead")

// processLead commits one lead: dedup check, normalize, create the contact
// and the lead, mark processed, then the best-effort recording attachment.
func (p *Pipeline) processLead(ctx context.Context, lead model.RawLead) error {
	if lead.LeadID == "" {
		return eris.New("pipeline: lead without id")
	}
	if p.ledger.IsProcessed(lead.LeadID) {
		zap.L().Debug("pipeline: duplicate lead skipped", zap.String("lead_id", lead.LeadID))
		return errDuplicate
	}

	canonical, err := p.norm.Normalize(ctx, lead)
	if err != nil {
		return err
	}

	contactID, err := p.crm.AddContact(ctx, contactFields(canonical))
	if err != nil {
		return eris.Wrapf(err, "pipeline: create contact for lead %s", lead.LeadID)
	}
	canonical.ContactID = contactID

	leadID, err := p.crm.AddLead(ctx, leadFields(canonical))
	if err != nil {
		return eris.Wrapf(err, "pipeline: create lead %s", lead.LeadID)
	}

	if err := p.ledger.MarkProcessed(ctx, lead.LeadID); err != nil {
		// The CRM record exists and the in-memory set holds the id, so the
		// run stays deduplicated; only the persisted watermark is behind.
		zap.L().Error("pipeline: ledger append failed",
			zap.String("lead_id", lead.LeadID), zap.Error(err))
	}

	if lead.Type == model.LeadTypeCall {
		p.attachRecording(ctx, lead, canonical, leadID)
	}

	zap.L().Info("pipeline: lead created",
		zap.String("lead_id", lead.LeadID),
		zap.Int("crm_lead_id", leadID),
		zap.Int("crm_contact_id", contactID),
		zap.Int("assigned_by_id", canonical.AssignedByID),
	)
	return nil
}
