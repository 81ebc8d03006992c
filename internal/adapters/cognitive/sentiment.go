package cognitive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"review_enrichment/internal/domain"
)

// SentimentClient calls the text sentiment classifier.
type SentimentClient struct{ p *poster }

func NewSentimentClient(endpoint, key string, timeout time.Duration) *SentimentClient {
	return &SentimentClient{p: newPoster("sentiment", endpoint, key, timeout)}
}

type sentimentDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type sentimentRequest struct {
	Documents []sentimentDocument `json:"documents"`
}

type sentimentResponse struct {
	Documents []struct {
		ID    string   `json:"id"`
		Score *float64 `json:"score"`
	} `json:"documents"`
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

// sentimentBody encodes the single-document request. Embedded double quotes
// come out as \" and the review text is otherwise passed through verbatim.
func sentimentBody(text string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sentimentRequest{Documents: []sentimentDocument{{ID: "1", Text: text}}}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *SentimentClient) Score(ctx context.Context, text string) (float64, error) {
	body, err := sentimentBody(text)
	if err != nil {
		return 0, err
	}
	var out sentimentResponse
	if err := c.p.post(ctx, body, &out); err != nil {
		return 0, err
	}
	if len(out.Errors) > 0 {
		return 0, &domain.UpstreamError{Service: c.p.name, Endpoint: "classify",
			Err: fmt.Errorf("document %s: %s", out.Errors[0].ID, out.Errors[0].Message)}
	}
	if len(out.Documents) == 0 || out.Documents[0].Score == nil {
		return 0, &domain.UpstreamError{Service: c.p.name, Endpoint: "classify",
			Err: errors.New("response has no document score")}
	}
	return *out.Documents[0].Score, nil
}
