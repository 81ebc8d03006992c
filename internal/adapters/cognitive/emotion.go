package cognitive

import (
	"context"
	"encoding/json"
	"time"

	"review_enrichment/internal/domain"
)

// EmotionClient calls the facial emotion classifier.
type EmotionClient struct{ p *poster }

func NewEmotionClient(endpoint, key string, timeout time.Duration) *EmotionClient {
	return &EmotionClient{p: newPoster("emotion", endpoint, key, timeout)}
}

// Recognize returns one entry per detected face; the slice is empty when the
// image has no face.
func (c *EmotionClient) Recognize(ctx context.Context, imageURL string) ([]domain.EmotionFace, error) {
	body, err := json.Marshal(urlRequest{URL: imageURL})
	if err != nil {
		return nil, err
	}
	var out []domain.EmotionFace
	if err := c.p.post(ctx, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
