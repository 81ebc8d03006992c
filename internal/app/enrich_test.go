package app_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"review_enrichment/internal/app"
	"review_enrichment/internal/domain"
)

func seedReviews(t *testing.T, store *fakeStore, yelpID string, texts ...string) {
	t.Helper()
	var ps []domain.ReviewPayload
	for i, txt := range texts {
		ps = append(ps, reviewPayload(txt, "2019-05-0"+string(rune('1'+i))+" 08:00:00", txt))
	}
	rep := app.NewReviewIngestor(store).Ingest(context.Background(), yelpID, ps, len(texts))
	if rep.Inserted != len(texts) {
		t.Fatalf("seed: %+v", rep)
	}
}

func TestEnrichment_Complete(t *testing.T) {
	store := newFakeStore()
	seedReviews(t, store, "x", "great", "fine")

	p := app.NewEnrichmentPipeline(store, visionFunc(okVision), emotionFunc(okEmotion), sentimentFunc(okSentiment))
	rep, err := p.Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Selected != 2 || rep.Complete != 2 || rep.Partial != 0 || rep.Failed != 0 {
		t.Fatalf("report: %+v", rep)
	}

	for _, o := range rep.Outcomes {
		r := store.review(o.ReviewID)
		if !r.Enriched() || deref(r.Sentiment) != "Positive" || *r.SentimentScores != 0.9 {
			t.Fatalf("sentiment: %+v", r)
		}
		if deref(r.Emotion) != "happiness" || *r.EmotionScores != 0.9 {
			t.Fatalf("emotion: %+v", r)
		}
		if deref(r.VisionGender) != "Female" || *r.VisionAge != 29 {
			t.Fatalf("face: %+v", r)
		}
		// each review gets the caption of its own image
		if deref(r.VisionDescriptionCaptions) != "caption of "+r.YelpUserImageURL {
			t.Fatalf("caption leaked across reviews: %q for %s", deref(r.VisionDescriptionCaptions), r.YelpUserImageURL)
		}
	}

	pending, _ := p.SelectPending(context.Background(), "x")
	if len(pending) != 0 {
		t.Fatalf("pending after run: %d", len(pending))
	}
}

func TestEnrichment_NoCategoriesIsPartial(t *testing.T) {
	store := newFakeStore()
	seedReviews(t, store, "x", "meh")

	noCat := visionFunc(func(ctx context.Context, url string) (domain.VisionResult, error) {
		return domain.VisionResult{
			Description: &domain.VisionDescription{Captions: []domain.VisionCaption{{Text: "ignored"}}},
		}, nil
	})
	noFaces := emotionFunc(func(ctx context.Context, url string) ([]domain.EmotionFace, error) {
		return []domain.EmotionFace{}, nil
	})
	neutral := sentimentFunc(func(ctx context.Context, text string) (float64, error) { return 0.5, nil })

	rep, err := app.NewEnrichmentPipeline(store, noCat, noFaces, neutral).Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Partial != 1 || rep.Complete != 0 || rep.Failed != 0 {
		t.Fatalf("report: %+v", rep)
	}
	o := rep.Outcomes[0]
	if o.Status != app.StatusPartial || strings.Join(o.Missing, ",") != "vision_description_captions,vision_face,emotion" {
		t.Fatalf("outcome: %+v", o)
	}
	r := store.review(o.ReviewID)
	if r.VisionDescriptionCaptions != nil || r.Emotion != nil || r.VisionGender != nil {
		t.Fatalf("missing fields must stay absent: %+v", r)
	}
	if deref(r.Sentiment) != "neutral" || !r.Enriched() {
		t.Fatalf("sentiment still written: %+v", r)
	}
}

func TestEnrichment_StepErrorWritesNothing(t *testing.T) {
	store := newFakeStore()
	seedReviews(t, store, "x", "good", "bad")

	flaky := sentimentFunc(func(ctx context.Context, text string) (float64, error) {
		if text == "bad" {
			return 0, &domain.UpstreamError{Service: "sentiment", Endpoint: "classify", Status: 500, Err: errors.New("boom")}
		}
		return 0.1, nil
	})
	p := app.NewEnrichmentPipeline(store, visionFunc(okVision), emotionFunc(okEmotion), flaky)
	rep, err := p.Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Complete != 1 || rep.Failed != 1 {
		t.Fatalf("report: %+v", rep)
	}

	pending, _ := p.SelectPending(context.Background(), "x")
	if len(pending) != 1 || pending[0].Text != "bad" {
		t.Fatalf("failed review must stay pending: %+v", pending)
	}
	bad := pending[0]
	if bad.VisionGender != nil || bad.VisionDescriptionCaptions != nil || bad.Emotion != nil || bad.Sentiment != nil {
		t.Fatalf("failed review has partial state: %+v", bad)
	}
	for _, o := range rep.Outcomes {
		if o.ReviewID == bad.ID && !strings.Contains(o.Error, "sentiment") {
			t.Fatalf("outcome error: %+v", o)
		}
	}
}

func TestEnrichment_VisionErrorWritesNothing(t *testing.T) {
	store := newFakeStore()
	seedReviews(t, store, "x", "only")

	broken := visionFunc(func(ctx context.Context, url string) (domain.VisionResult, error) {
		return domain.VisionResult{}, &domain.UpstreamError{Service: "vision", Err: errors.New("timeout")}
	})
	rep, _ := app.NewEnrichmentPipeline(store, broken, emotionFunc(okEmotion), sentimentFunc(okSentiment)).
		Run(context.Background(), "x")
	if rep.Failed != 1 || store.updates != 0 {
		t.Fatalf("expected no write, report=%+v updates=%d", rep, store.updates)
	}
}

func TestEnrichment_RerunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	seedReviews(t, store, "x", "a", "b", "c")

	var calls int32
	counting := sentimentFunc(func(ctx context.Context, text string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		return 0.7, nil
	})
	p := app.NewEnrichmentPipeline(store, visionFunc(okVision), emotionFunc(okEmotion), counting, app.WithWorkers(2))
	if _, err := p.Run(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	rep, err := p.Run(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Selected != 0 || atomic.LoadInt32(&calls) != 3 || store.updates != 3 {
		t.Fatalf("second run touched enriched reviews: rep=%+v calls=%d updates=%d", rep, calls, store.updates)
	}
}

func TestEnrichment_NoImageSkipsImageSteps(t *testing.T) {
	store := newFakeStore()
	_, _ = store.InsertReview(context.Background(), domain.Review{YelpID: "x", Text: "no avatar"})

	called := false
	vision := visionFunc(func(ctx context.Context, url string) (domain.VisionResult, error) {
		called = true
		return domain.VisionResult{}, nil
	})
	rep, _ := app.NewEnrichmentPipeline(store, vision, emotionFunc(okEmotion), sentimentFunc(okSentiment)).
		Run(context.Background(), "x")
	if called {
		t.Fatal("vision must not be called without an image URL")
	}
	if rep.Partial != 1 {
		t.Fatalf("report: %+v", rep)
	}
}

func TestEnrichment_LockHeldSkips(t *testing.T) {
	store := newFakeStore()
	seedReviews(t, store, "x", "a")
	locker := &fakeLocker{}
	release, _ := locker.Obtain(context.Background(), "enrich:x", 0)

	p := app.NewEnrichmentPipeline(store, visionFunc(okVision), emotionFunc(okEmotion), sentimentFunc(okSentiment),
		app.WithLocker(locker, 0))
	rep, err := p.Run(context.Background(), "x")
	if err != nil || !rep.Skipped || rep.Selected != 0 {
		t.Fatalf("expected skip, got %+v, %v", rep, err)
	}

	_ = release(context.Background())
	rep, err = p.Run(context.Background(), "x")
	if err != nil || rep.Skipped || rep.Complete != 1 {
		t.Fatalf("expected run after release, got %+v, %v", rep, err)
	}
	if locker.held["enrich:x"] {
		t.Fatal("lock not released after run")
	}
}

func TestEnrichment_SelectError(t *testing.T) {
	store := newFakeStore()
	store.listPendingErr = errors.New("db down")
	_, err := app.NewEnrichmentPipeline(store, visionFunc(okVision), emotionFunc(okEmotion), sentimentFunc(okSentiment)).
		Run(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected select error, got %v", err)
	}
}
