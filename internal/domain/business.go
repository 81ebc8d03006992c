package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Business struct {
	ID          int64           `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	YelpID      string          `json:"yelp_id"`
	YelpName    string          `json:"yelp_name"`
	ImageURL    string          `json:"image_url"`
	IsClaimed   bool            `json:"is_claimed"`
	IsClosed    bool            `json:"is_closed"`
	URL         string          `json:"url"`
	Price       string          `json:"price"`
	Rating      decimal.Decimal `json:"rating"` // DECIMAL(10,2)
	ReviewCount int             `json:"review_count"`
	Phone       string          `json:"phone"`
	Photo1URL   *string         `json:"photo1_url"`
	Photo2URL   *string         `json:"photo2_url"`
	Photo3URL   *string         `json:"photo3_url"`
	Latitude    *float64        `json:"coordinates_latitude"`
	Longitude   *float64        `json:"coordinates_longitude"`
}

// BusinessPayload is a business record as returned by the directory API.
type BusinessPayload struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ImageURL    string      `json:"image_url"`
	IsClaimed   bool        `json:"is_claimed"`
	IsClosed    bool        `json:"is_closed"`
	URL         string      `json:"url"`
	Price       string      `json:"price"` // not trusted on ingest
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Phone       string      `json:"phone"`
	Photos      []string    `json:"photos"`
	Coordinates Coordinates `json:"coordinates"`
}

type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type SearchResult struct {
	Total      int               `json:"total"`
	Businesses []BusinessPayload `json:"businesses"`
}
