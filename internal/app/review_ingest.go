package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_enrichment/internal/adapters/observability"
	"review_enrichment/internal/domain"
)

// ReviewIngestReport summarises one batch. Errors holds one entry per failed payload.
type ReviewIngestReport struct {
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

type ReviewIngestor struct {
	store domain.Store
	dedup *Deduplicator
}

func NewReviewIngestor(s domain.Store) *ReviewIngestor {
	return &ReviewIngestor{store: s, dedup: NewDeduplicator(s)}
}

// Ingest stores every payload not already present. Payloads are handled
// independently; one failure never stops the rest of the batch.
func (ri *ReviewIngestor) Ingest(ctx context.Context, yelpID string, payloads []domain.ReviewPayload, total int) ReviewIngestReport {
	var rep ReviewIngestReport
	for i, p := range payloads {
		if ctx.Err() != nil {
			rep.Failed += len(payloads) - i
			rep.Errors = append(rep.Errors, ctx.Err().Error())
			break
		}
		out, err := ri.ingestOne(ctx, yelpID, p, total)
		observability.ObserveIngest("review", string(out))
		switch out {
		case OutcomeInserted:
			rep.Inserted++
		case OutcomeDuplicate:
			rep.Duplicates++
		default:
			rep.Failed++
			rep.Errors = append(rep.Errors, err.Error())
			log.Warn().Err(err).Str("yelp_id", yelpID).Str("review_id", p.ID).Msg("review ingest failed")
		}
	}
	return rep
}

func (ri *ReviewIngestor) ingestOne(ctx context.Context, yelpID string, p domain.ReviewPayload, total int) (IngestOutcome, error) {
	rv, err := mapReview(yelpID, p, total)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("review %s: %w", p.ID, err)
	}
	exists, err := ri.dedup.ReviewExists(ctx, yelpID, rv.ReviewCreatedAt)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("review %s exists: %w", p.ID, err)
	}
	if exists {
		return OutcomeDuplicate, nil
	}
	if _, err := ri.store.InsertReview(ctx, rv); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("insert review %s: %w", p.ID, err)
	}
	return OutcomeInserted, nil
}
