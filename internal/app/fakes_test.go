package app_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"review_enrichment/internal/domain"
)

// ---- store ----

type reviewKey struct {
	yelpID string
	at     time.Time
}

type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	businesses map[string]domain.Business
	reviews    map[int64]domain.Review
	keys       map[reviewKey]int64
	updates    int

	insertReviewErr func(domain.Review) error
	listPendingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		businesses: map[string]domain.Business{},
		reviews:    map[int64]domain.Review{},
		keys:       map[reviewKey]int64{},
	}
}

func (f *fakeStore) BusinessExists(ctx context.Context, yelpID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.businesses[yelpID]
	return ok, nil
}

func (f *fakeStore) InsertBusiness(ctx context.Context, b domain.Business) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.businesses[b.YelpID]; ok {
		return 0, domain.ErrDuplicate
	}
	f.nextID++
	b.ID = f.nextID
	f.businesses[b.YelpID] = b
	return b.ID, nil
}

func (f *fakeStore) GetBusiness(ctx context.Context, yelpID string) (domain.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.businesses[yelpID]
	if !ok {
		return domain.Business{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ReviewExists(ctx context.Context, yelpID string, createdAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[reviewKey{yelpID, createdAt.UTC()}]
	return ok, nil
}

func (f *fakeStore) InsertReview(ctx context.Context, r domain.Review) (int64, error) {
	if f.insertReviewErr != nil {
		if err := f.insertReviewErr(r); err != nil {
			return 0, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := reviewKey{r.YelpID, r.ReviewCreatedAt.UTC()}
	if _, ok := f.keys[k]; ok {
		return 0, domain.ErrDuplicate
	}
	f.nextID++
	r.ID = f.nextID
	f.reviews[r.ID] = r
	f.keys[k] = r.ID
	return r.ID, nil
}

func (f *fakeStore) ListPendingReviews(ctx context.Context, yelpID string) ([]domain.Review, error) {
	if f.listPendingErr != nil {
		return nil, f.listPendingErr
	}
	var out []domain.Review
	for _, r := range f.sorted(yelpID) {
		if !r.Enriched() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReviews(ctx context.Context, yelpID string) ([]domain.Review, error) {
	out := f.sorted(yelpID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReviewCreatedAt.After(out[j].ReviewCreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateEnrichment(ctx context.Context, id int64, e domain.Enrichment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok || r.Enriched() {
		return domain.ErrAlreadyEnriched
	}
	if e.Caption != nil {
		r.VisionDescriptionCaptions = ptr(e.Caption.Text)
		r.VisionDescriptionCaptionsConfidence = ptr(e.Caption.Confidence)
	}
	if e.Face != nil {
		r.VisionGender = ptr(e.Face.Gender)
		r.VisionAge = ptr(e.Face.Age)
	}
	if e.Emotion != nil {
		r.Emotion = ptr(e.Emotion.Label)
		r.EmotionScores = ptr(e.Emotion.Score)
	}
	r.Sentiment = ptr(e.Sentiment.Label)
	r.SentimentScores = ptr(e.Sentiment.Score)
	f.reviews[id] = r
	f.updates++
	return nil
}

// sorted returns the business's reviews by id.
func (f *fakeStore) sorted(yelpID string) []domain.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Review
	for _, r := range f.reviews {
		if r.YelpID == yelpID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStore) review(id int64) domain.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reviews[id]
}

// ---- cache ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Business:
		*d = v.(domain.Business)
	case *[]domain.Review:
		*d = v.([]domain.Review)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

// ---- classifiers ----

type visionFunc func(ctx context.Context, url string) (domain.VisionResult, error)

func (f visionFunc) Analyze(ctx context.Context, url string) (domain.VisionResult, error) {
	return f(ctx, url)
}

type emotionFunc func(ctx context.Context, url string) ([]domain.EmotionFace, error)

func (f emotionFunc) Recognize(ctx context.Context, url string) ([]domain.EmotionFace, error) {
	return f(ctx, url)
}

type sentimentFunc func(ctx context.Context, text string) (float64, error)

func (f sentimentFunc) Score(ctx context.Context, text string) (float64, error) { return f(ctx, text) }

func okVision(ctx context.Context, url string) (domain.VisionResult, error) {
	return domain.VisionResult{
		Categories:  []domain.VisionCategory{{Name: "people_", Score: 0.9}},
		Description: &domain.VisionDescription{Captions: []domain.VisionCaption{{Text: "caption of " + url, Confidence: 0.8}}},
		Faces:       []domain.VisionFace{{Gender: "Female", Age: 29}},
	}, nil
}

func okEmotion(ctx context.Context, url string) ([]domain.EmotionFace, error) {
	return []domain.EmotionFace{{Scores: domain.EmotionScores{Happiness: 0.9, Neutral: 0.1}}}, nil
}

func okSentiment(ctx context.Context, text string) (float64, error) { return 0.9, nil }

// ---- directory ----

type fakeDirectory struct {
	businesses map[string]domain.BusinessPayload
	reviews    map[string]domain.ReviewList
	search     domain.SearchResult

	businessErr error
	reviewsErr  error
	fetches     int
}

func (d *fakeDirectory) FetchBusiness(ctx context.Context, id string) (domain.BusinessPayload, error) {
	d.fetches++
	if d.businessErr != nil {
		return domain.BusinessPayload{}, d.businessErr
	}
	b, ok := d.businesses[id]
	if !ok {
		return domain.BusinessPayload{}, domain.ErrNotFound
	}
	return b, nil
}

func (d *fakeDirectory) FetchReviews(ctx context.Context, id string) (domain.ReviewList, error) {
	if d.reviewsErr != nil {
		return domain.ReviewList{}, d.reviewsErr
	}
	return d.reviews[id], nil
}

func (d *fakeDirectory) SearchBusinesses(ctx context.Context, term, location string, limit int) (domain.SearchResult, error) {
	return d.search, nil
}

// ---- locker ----

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, domain.ErrLocked
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func reviewPayload(id, at, text string) domain.ReviewPayload {
	return domain.ReviewPayload{
		ID:          id,
		URL:         "https://yelp/biz/x?hrid=" + id,
		Text:        text,
		Rating:      4,
		TimeCreated: at,
		User:        domain.ReviewUser{ImageURL: "http://img/" + id + ".jpg", Name: "user " + id},
	}
}
