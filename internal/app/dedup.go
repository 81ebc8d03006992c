package app

import (
	"context"
	"time"

	"review_enrichment/internal/domain"
)

// Deduplicator answers natural-key existence checks against the store.
type Deduplicator struct {
	store domain.Store
}

func NewDeduplicator(s domain.Store) *Deduplicator { return &Deduplicator{store: s} }

func (d *Deduplicator) BusinessExists(ctx context.Context, yelpID string) (bool, error) {
	return d.store.BusinessExists(ctx, yelpID)
}

// ReviewExists matches on exact equality of the creation timestamp at second precision.
func (d *Deduplicator) ReviewExists(ctx context.Context, yelpID string, createdAt time.Time) (bool, error) {
	return d.store.ReviewExists(ctx, yelpID, normalizeTime(createdAt))
}

func normalizeTime(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }
