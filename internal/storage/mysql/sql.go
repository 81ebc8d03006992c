package mysql

const businessExistsSQL = `SELECT EXISTS(SELECT 1 FROM businesses WHERE yelp_id = ?)`

const insertBusinessSQL = `
INSERT INTO businesses
  (yelp_id, yelp_name, image_url, is_claimed, is_closed, url, price, rating, review_count, phone,
   photo1_url, photo2_url, photo3_url, coordinates_latitude, coordinates_longitude)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getBusinessSQL = `
SELECT
  id, created_at, yelp_id, yelp_name, image_url, is_claimed, is_closed, url, price, rating,
  review_count, phone, photo1_url, photo2_url, photo3_url, coordinates_latitude, coordinates_longitude
FROM businesses
WHERE yelp_id = ?
`

// Note: `text` is reserved; keep it quoted everywhere.
const reviewExistsSQL = `SELECT EXISTS(SELECT 1 FROM reviews WHERE yelp_id = ? AND review_created_at = ?)`

const insertReviewSQL = "INSERT INTO reviews\n" +
	"  (yelp_id, rating, yelp_user_image_url, yelp_user_name, `text`, review_created_at,\n" +
	"   business_url, business_review_count)\n" +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?)\n"

const selectReviewColumns = "SELECT\n" +
	"  id, created_at, yelp_id, rating, yelp_user_image_url, yelp_user_name, `text`, review_created_at,\n" +
	"  business_url, business_review_count, vision_gender, vision_age, vision_description_captions,\n" +
	"  vision_description_captions_confidence, emotion, emotion_scores, sentiment, sentiment_scores\n" +
	"FROM reviews\n"

const listPendingReviewsSQL = selectReviewColumns +
	"WHERE yelp_id = ? AND sentiment_scores IS NULL\n" +
	"ORDER BY id"

const listReviewsSQL = selectReviewColumns +
	"WHERE yelp_id = ?\n" +
	"ORDER BY review_created_at DESC, id DESC"

// The IS NULL guard makes the write a no-op for a review that is already enriched.
const updateEnrichmentSQL = `
UPDATE reviews SET
  vision_gender                          = ?,
  vision_age                             = ?,
  vision_description_captions            = ?,
  vision_description_captions_confidence = ?,
  emotion                                = ?,
  emotion_scores                         = ?,
  sentiment                              = ?,
  sentiment_scores                       = ?
WHERE id = ? AND sentiment_scores IS NULL
`
