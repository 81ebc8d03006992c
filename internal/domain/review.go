package domain

import "time"

// Review is a stored directory review. The natural key is (YelpID, ReviewCreatedAt);
// ID is the storage row id. Derived fields are nil until enrichment.
type Review struct {
	ID                  int64     `json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	YelpID              string    `json:"yelp_id"`
	Rating              int       `json:"rating"`
	YelpUserImageURL    string    `json:"yelp_user_image_url"`
	YelpUserName        string    `json:"yelp_user_name"`
	Text                string    `json:"text"`
	ReviewCreatedAt     time.Time `json:"review_created_at"`
	BusinessURL         string    `json:"business_url"`
	BusinessReviewCount int       `json:"business_review_count"`

	VisionGender                        *string  `json:"vision_gender"`
	VisionAge                           *int     `json:"vision_age"`
	VisionDescriptionCaptions           *string  `json:"vision_description_captions"`
	VisionDescriptionCaptionsConfidence *float64 `json:"vision_description_captions_confidence"`
	Emotion                             *string  `json:"emotion"`
	EmotionScores                       *float64 `json:"emotion_scores"`
	Sentiment                           *string  `json:"sentiment"`
	SentimentScores                     *float64 `json:"sentiment_scores"`
}

// Enriched reports whether the enrichment pass has run. SentimentScores is the
// completion sentinel for the whole set of derived fields.
func (r Review) Enriched() bool { return r.SentimentScores != nil }

// ReviewPayload is one entry of the directory's reviews sub-resource.
type ReviewPayload struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Text        string     `json:"text"`
	Rating      int        `json:"rating"`
	TimeCreated string     `json:"time_created"` // "2006-01-02 15:04:05"
	User        ReviewUser `json:"user"`
}

type ReviewUser struct {
	ImageURL string `json:"image_url"`
	Name     string `json:"name"`
}

// ReviewList may carry fewer reviews than Total.
type ReviewList struct {
	Total   int             `json:"total"`
	Reviews []ReviewPayload `json:"reviews"`
}
