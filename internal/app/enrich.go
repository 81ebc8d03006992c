package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"review_enrichment/internal/adapters/observability"
	"review_enrichment/internal/domain"
)

type EnrichmentStatus string

const (
	StatusComplete EnrichmentStatus = "complete"
	StatusPartial  EnrichmentStatus = "partial"
	StatusFailed   EnrichmentStatus = "failed"
)

const (
	DefaultEnrichWorkers = 4
	DefaultLockTTL       = 2 * time.Minute
)

type ReviewOutcome struct {
	ReviewID int64            `json:"review_id"`
	Status   EnrichmentStatus `json:"status"`
	Missing  []string         `json:"missing,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// EnrichmentReport summarises one run. Skipped is set when another run holds
// the business lock.
type EnrichmentReport struct {
	Selected int             `json:"selected"`
	Complete int             `json:"complete"`
	Partial  int             `json:"partial"`
	Failed   int             `json:"failed"`
	Skipped  bool            `json:"skipped"`
	Outcomes []ReviewOutcome `json:"outcomes,omitempty"`
}

// EnrichmentPipeline runs the three classifiers over a business's pending
// reviews and writes every derived field of a review in one update.
type EnrichmentPipeline struct {
	store     domain.ReviewStore
	vision    domain.VisionClassifier
	emotion   domain.EmotionClassifier
	sentiment domain.SentimentClassifier
	workers   int
	locker    domain.Locker
	lockTTL   time.Duration
}

type PipelineOption func(*EnrichmentPipeline)

func WithWorkers(n int) PipelineOption {
	return func(p *EnrichmentPipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLocker serialises runs for the same business across processes.
func WithLocker(l domain.Locker, ttl time.Duration) PipelineOption {
	return func(p *EnrichmentPipeline) {
		p.locker = l
		if ttl > 0 {
			p.lockTTL = ttl
		}
	}
}

func NewEnrichmentPipeline(s domain.ReviewStore, v domain.VisionClassifier, e domain.EmotionClassifier,
	sc domain.SentimentClassifier, opts ...PipelineOption) *EnrichmentPipeline {
	p := &EnrichmentPipeline{
		store: s, vision: v, emotion: e, sentiment: sc,
		workers: DefaultEnrichWorkers,
		lockTTL: DefaultLockTTL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *EnrichmentPipeline) SelectPending(ctx context.Context, yelpID string) ([]domain.Review, error) {
	return p.store.ListPendingReviews(ctx, yelpID)
}

func (p *EnrichmentPipeline) Run(ctx context.Context, yelpID string) (EnrichmentReport, error) {
	var rep EnrichmentReport

	if p.locker != nil {
		release, err := p.locker.Obtain(ctx, "enrich:"+yelpID, p.lockTTL)
		if errors.Is(err, domain.ErrLocked) {
			log.Info().Str("yelp_id", yelpID).Msg("enrichment already running, skipping")
			observability.ObserveEnrichment("skipped")
			rep.Skipped = true
			return rep, nil
		}
		if err != nil {
			return rep, fmt.Errorf("obtain enrichment lock: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Str("yelp_id", yelpID).Msg("release enrichment lock")
			}
		}()
	}

	pending, err := p.SelectPending(ctx, yelpID)
	if err != nil {
		return rep, fmt.Errorf("select pending reviews: %w", err)
	}
	rep.Selected = len(pending)
	if len(pending) == 0 {
		return rep, nil
	}

	outcomes := make([]ReviewOutcome, len(pending))
	sem := semaphore.NewWeighted(int64(p.workers))
	var wg sync.WaitGroup

	for i := range pending {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(pending); j++ {
				outcomes[j] = ReviewOutcome{ReviewID: pending[j].ID, Status: StatusFailed, Error: err.Error()}
			}
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = p.enrichOne(ctx, pending[i])
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		switch o.Status {
		case StatusComplete:
			rep.Complete++
		case StatusPartial:
			rep.Partial++
		default:
			rep.Failed++
		}
		observability.ObserveEnrichment(string(o.Status))
	}
	rep.Outcomes = outcomes

	log.Info().
		Str("yelp_id", yelpID).
		Int("selected", rep.Selected).
		Int("complete", rep.Complete).
		Int("partial", rep.Partial).
		Int("failed", rep.Failed).
		Msg("enrichment finished")
	return rep, nil
}

// enrichOne runs the classifier steps concurrently and writes only when all
// of them succeeded. A failed review stays pending for the next run.
func (p *EnrichmentPipeline) enrichOne(ctx context.Context, rv domain.Review) ReviewOutcome {
	out := ReviewOutcome{ReviewID: rv.ID}

	var (
		vp    visionPart
		emo   *domain.EmotionScore
		score float64
	)
	g, gctx := errgroup.WithContext(ctx)
	if rv.YelpUserImageURL != "" {
		g.Go(func() error {
			res, err := p.vision.Analyze(gctx, rv.YelpUserImageURL)
			if err != nil {
				return fmt.Errorf("vision: %w", err)
			}
			vp = reduceVision(res)
			return nil
		})
		g.Go(func() error {
			faces, err := p.emotion.Recognize(gctx, rv.YelpUserImageURL)
			if err != nil {
				return fmt.Errorf("emotion: %w", err)
			}
			emo = selectEmotion(faces)
			return nil
		})
	}
	g.Go(func() error {
		s, err := p.sentiment.Score(gctx, rv.Text)
		if err != nil {
			return fmt.Errorf("sentiment: %w", err)
		}
		score = s
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Int64("review_id", rv.ID).Str("yelp_id", rv.YelpID).Msg("enrichment step failed")
		out.Status, out.Error = StatusFailed, err.Error()
		return out
	}

	e := domain.Enrichment{
		Caption:   vp.caption,
		Face:      vp.face,
		Emotion:   emo,
		Sentiment: classifySentiment(score),
	}
	if err := p.store.UpdateEnrichment(ctx, rv.ID, e); err != nil {
		if errors.Is(err, domain.ErrAlreadyEnriched) {
			log.Debug().Int64("review_id", rv.ID).Msg("review enriched by another run")
		} else {
			log.Error().Err(err).Int64("review_id", rv.ID).Msg("write enrichment")
		}
		out.Status, out.Error = StatusFailed, err.Error()
		return out
	}

	out.Missing = e.Missing()
	if len(out.Missing) > 0 {
		out.Status = StatusPartial
	} else {
		out.Status = StatusComplete
	}
	return out
}
