package cognitive

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"review_enrichment/internal/domain"
)

// VisionClient calls the image-analysis classifier.
type VisionClient struct{ p *poster }

// NewVisionClient adds the default analysis query parameters unless the
// endpoint already carries a visualFeatures parameter.
func NewVisionClient(endpoint, key string, timeout time.Duration) (*VisionClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if q.Get("visualFeatures") == "" {
		q.Set("visualFeatures", "Categories,Tags,Description,Faces,ImageType,Color,Adult")
		q.Set("details", "Celebrities,Landmarks")
		q.Set("language", "en")
		u.RawQuery = q.Encode()
	}
	return &VisionClient{p: newPoster("vision", u.String(), key, timeout)}, nil
}

type urlRequest struct {
	URL string `json:"url"`
}

func (c *VisionClient) Analyze(ctx context.Context, imageURL string) (domain.VisionResult, error) {
	body, err := json.Marshal(urlRequest{URL: imageURL})
	if err != nil {
		return domain.VisionResult{}, err
	}
	var out domain.VisionResult
	if err := c.p.post(ctx, body, &out); err != nil {
		return domain.VisionResult{}, err
	}
	return out, nil
}
