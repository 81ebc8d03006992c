package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"review_enrichment/internal/domain"
)

// PricePlaceholder is written for every ingested business; the directory's own
// price field is ignored.
const PricePlaceholder = "$$$$"

// ReviewTimeLayout is the directory's review timestamp format, interpreted as UTC.
const ReviewTimeLayout = "2006-01-02 15:04:05"

/********** tiny helpers **********/

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// photoAt returns the photo URL at position i, or nil when absent.
func photoAt(photos []string, i int) *string {
	if i < 0 || i >= len(photos) {
		return nil
	}
	return ptrStr(strings.TrimSpace(photos[i]))
}

/********** business mapper **********/

func mapBusiness(p domain.BusinessPayload) domain.Business {
	return domain.Business{
		YelpID:      p.ID,
		YelpName:    p.Name,
		ImageURL:    p.ImageURL,
		IsClaimed:   p.IsClaimed,
		IsClosed:    p.IsClosed,
		URL:         p.URL,
		Price:       PricePlaceholder,
		Rating:      decimal.NewFromFloat(p.Rating).Round(2),
		ReviewCount: p.ReviewCount,
		Phone:       p.Phone,
		Photo1URL:   photoAt(p.Photos, 0),
		Photo2URL:   photoAt(p.Photos, 1),
		Photo3URL:   photoAt(p.Photos, 2),
		Latitude:    p.Coordinates.Latitude,
		Longitude:   p.Coordinates.Longitude,
	}
}

/********** review mapper **********/

func parseReviewTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ReviewTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time_created %q: %w", s, err)
	}
	return t, nil
}

// mapReview copies the payload 1:1. total is the business-level review count at
// fetch time and is stored on every review as business_review_count.
func mapReview(yelpID string, p domain.ReviewPayload, total int) (domain.Review, error) {
	at, err := parseReviewTime(p.TimeCreated)
	if err != nil {
		return domain.Review{}, err
	}
	return domain.Review{
		YelpID:              yelpID,
		Rating:              p.Rating,
		YelpUserImageURL:    p.User.ImageURL,
		YelpUserName:        p.User.Name,
		Text:                p.Text,
		ReviewCreatedAt:     at,
		BusinessURL:         p.URL,
		BusinessReviewCount: total,
	}, nil
}
