package domain

import (
	"context"
	"time"
)

type BusinessStore interface {
	BusinessExists(ctx context.Context, yelpID string) (bool, error)
	InsertBusiness(ctx context.Context, b Business) (int64, error)
	GetBusiness(ctx context.Context, yelpID string) (Business, error)
}

type ReviewStore interface {
	ReviewExists(ctx context.Context, yelpID string, createdAt time.Time) (bool, error)
	InsertReview(ctx context.Context, r Review) (int64, error)
	// ListPendingReviews returns reviews of the business whose sentiment_scores is NULL.
	ListPendingReviews(ctx context.Context, yelpID string) ([]Review, error)
	ListReviews(ctx context.Context, yelpID string) ([]Review, error)
	// UpdateEnrichment writes every derived field in one statement. It returns
	// ErrAlreadyEnriched when the row is no longer pending.
	UpdateEnrichment(ctx context.Context, id int64, e Enrichment) error
}

type Store interface {
	BusinessStore
	ReviewStore
}

type DirectoryClient interface {
	FetchBusiness(ctx context.Context, id string) (BusinessPayload, error)
	FetchReviews(ctx context.Context, id string) (ReviewList, error)
	SearchBusinesses(ctx context.Context, term, location string, limit int) (SearchResult, error)
}

type VisionClassifier interface {
	Analyze(ctx context.Context, imageURL string) (VisionResult, error)
}

type EmotionClassifier interface {
	Recognize(ctx context.Context, imageURL string) ([]EmotionFace, error)
}

type SentimentClassifier interface {
	// Score returns the document sentiment in [0,1].
	Score(ctx context.Context, text string) (float64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Locker hands out short-lived exclusive locks. Obtain returns ErrLocked when
// the key is already held.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
