package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_enrichment/internal/domain"
)

type LookupResult struct {
	Business        domain.Business    `json:"business"`
	BusinessOutcome IngestOutcome      `json:"business_outcome"`
	Reviews         ReviewIngestReport `json:"reviews"`
	ReviewsError    string             `json:"reviews_error,omitempty"`
	Enrichment      EnrichmentReport   `json:"enrichment"`
	EnrichmentError string             `json:"enrichment_error,omitempty"`
}

// LookupService drives one business through ingestion and enrichment.
type LookupService struct {
	dir       domain.DirectoryClient
	store     domain.Store
	cache     domain.Cache
	dedup     *Deduplicator
	business  *BusinessIngestor
	reviews   *ReviewIngestor
	enrichers *EnrichmentPipeline
}

func NewLookupService(dir domain.DirectoryClient, s domain.Store, c domain.Cache, p *EnrichmentPipeline) *LookupService {
	return &LookupService{
		dir:       dir,
		store:     s,
		cache:     c,
		dedup:     NewDeduplicator(s),
		business:  NewBusinessIngestor(s),
		reviews:   NewReviewIngestor(s),
		enrichers: p,
	}
}

// Lookup ingests the business on first sighting, ingests its newest reviews
// and enriches whatever is still pending. Only auth failures and a missing
// business fail the call; review and enrichment problems are reported on the result.
func (s *LookupService) Lookup(ctx context.Context, yelpID string) (LookupResult, error) {
	var res LookupResult

	// 1) Business. Existing rows are never refreshed.
	exists, err := s.dedup.BusinessExists(ctx, yelpID)
	if err != nil {
		return res, fmt.Errorf("business exists %s: %w", yelpID, err)
	}
	if exists {
		res.BusinessOutcome = OutcomeDuplicate
	} else {
		p, err := s.dir.FetchBusiness(ctx, yelpID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.invalidate(ctx, yelpID)
			}
			return res, err
		}
		if res.BusinessOutcome, err = s.business.Ingest(ctx, p); err != nil {
			return res, err
		}
	}

	// 2) Reviews: auth aborts; anything else is recorded and we still enrich
	// what is already stored.
	list, err := s.dir.FetchReviews(ctx, yelpID)
	var authErr *domain.AuthError
	switch {
	case errors.As(err, &authErr):
		return res, err
	case err != nil:
		log.Warn().Err(err).Str("yelp_id", yelpID).Msg("fetch reviews failed")
		res.ReviewsError = err.Error()
	default:
		res.Reviews = s.reviews.Ingest(ctx, yelpID, list.Reviews, list.Total)
	}

	// 3) Enrichment never fails the lookup.
	if s.enrichers != nil {
		rep, err := s.enrichers.Run(ctx, yelpID)
		res.Enrichment = rep
		if err != nil {
			log.Warn().Err(err).Str("yelp_id", yelpID).Msg("enrichment failed")
			res.EnrichmentError = err.Error()
		}
	}

	// 4) Drop cached views and return the stored row.
	s.invalidate(ctx, yelpID)
	b, err := s.store.GetBusiness(ctx, yelpID)
	if err != nil {
		return res, fmt.Errorf("load business %s: %w", yelpID, err)
	}
	res.Business = b
	return res, nil
}

// Discover returns the ids of businesses matching a directory search.
func (s *LookupService) Discover(ctx context.Context, term, location string, limit int) ([]string, error) {
	sr, err := s.dir.SearchBusinesses(ctx, term, location, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sr.Businesses))
	for _, b := range sr.Businesses {
		if b.ID != "" {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

func (s *LookupService) invalidate(ctx context.Context, yelpID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, businessKey(yelpID))
	_ = s.cache.Del(ctx, reviewsKey(yelpID))
}
