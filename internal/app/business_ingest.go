package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_enrichment/internal/adapters/observability"
	"review_enrichment/internal/domain"
)

type IngestOutcome string

const (
	OutcomeInserted  IngestOutcome = "inserted"
	OutcomeDuplicate IngestOutcome = "duplicate"
	OutcomeFailed    IngestOutcome = "failed"
)

// BusinessIngestor inserts a business on first sighting. Existing rows are never updated.
type BusinessIngestor struct {
	store domain.Store
	dedup *Deduplicator
}

func NewBusinessIngestor(s domain.Store) *BusinessIngestor {
	return &BusinessIngestor{store: s, dedup: NewDeduplicator(s)}
}

func (bi *BusinessIngestor) Ingest(ctx context.Context, p domain.BusinessPayload) (IngestOutcome, error) {
	out, err := bi.ingest(ctx, p)
	observability.ObserveIngest("business", string(out))
	return out, err
}

func (bi *BusinessIngestor) ingest(ctx context.Context, p domain.BusinessPayload) (IngestOutcome, error) {
	if p.ID == "" {
		return OutcomeFailed, errors.New("business payload has no id")
	}
	exists, err := bi.dedup.BusinessExists(ctx, p.ID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("business exists %s: %w", p.ID, err)
	}
	if exists {
		return OutcomeDuplicate, nil
	}

	if _, err := bi.store.InsertBusiness(ctx, mapBusiness(p)); err != nil {
		// lost a race with a concurrent ingest of the same id
		if errors.Is(err, domain.ErrDuplicate) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("insert business %s: %w", p.ID, err)
	}
	log.Info().Str("yelp_id", p.ID).Msg("business inserted")
	return OutcomeInserted, nil
}
