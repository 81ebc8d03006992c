package app

import (
	"context"
	"encoding/json"
	"time"

	"review_enrichment/internal/domain"
)

func businessKey(yelpID string) string { return "business:" + yelpID }
func reviewsKey(yelpID string) string  { return "reviews:" + yelpID }

type QueryService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s domain.Store, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetBusiness(ctx context.Context, yelpID string) (domain.Business, error) {
	key := businessKey(yelpID)
	var b domain.Business
	if ok, _ := s.cache.Get(ctx, key, &b); ok {
		return b, nil
	}
	b, err := s.store.GetBusiness(ctx, yelpID)
	if err != nil {
		return domain.Business{}, err
	}
	_ = s.cache.Set(ctx, key, b, int(s.cacheTTL.Seconds()))
	return b, nil
}

// ListReviews returns the business's stored reviews, newest first.
func (s *QueryService) ListReviews(ctx context.Context, yelpID string) ([]domain.Review, error) {
	key := reviewsKey(yelpID)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.store.ListReviews(ctx, yelpID)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the store's backing array
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)

	// optional size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}
