// Package cognitive adapts the image-analysis, emotion and text-sentiment
// classifiers. Each adapter is a thin request/response shape converter over
// a shared JSON poster guarded by its own circuit breaker.
package cognitive

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"review_enrichment/internal/adapters/observability"
	"review_enrichment/internal/adapters/transport"
	"review_enrichment/internal/domain"
)

const keyHeader = "Ocp-Apim-Subscription-Key"

// DefaultTimeout bounds a single classifier call including retries.
const DefaultTimeout = 10 * time.Second

type poster struct {
	name     string
	endpoint string
	key      string
	hc       *http.Client
	timeout  time.Duration
	cb       *gobreaker.CircuitBreaker[struct{}]
}

func newPoster(name, endpoint, key string, timeout time.Duration) *poster {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	observability.SetBreakerState(name, 0)
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// calls cancelled by a failing sibling step do not count against the classifier
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("classifier circuit breaker state change")
			observability.SetBreakerState(name, stateValue(to))
		},
	})
	return &poster{
		name:     name,
		endpoint: endpoint,
		key:      key,
		hc:       &http.Client{Timeout: timeout},
		timeout:  timeout,
		cb:       cb,
	}
}

// post sends body and decodes the response into out. Every failure comes back
// as a *domain.UpstreamError.
func (p *poster) post(ctx context.Context, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, transport.Do(ctx, p.hc, transport.Request{
			Service:  p.name,
			Endpoint: "classify",
			Method:   http.MethodPost,
			URL:      p.endpoint,
			Header:   http.Header{keyHeader: {p.key}},
			Body:     body,
		}, out)
	})
	if err == nil {
		return nil
	}
	ue := &domain.UpstreamError{Service: p.name, Endpoint: "classify", Err: err}
	var se *transport.StatusError
	if errors.As(err, &se) {
		ue.Status = se.Code
	}
	return ue
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
