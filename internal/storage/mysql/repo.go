package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"review_enrichment/internal/domain"
)

const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrNullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
func ptrNullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
func ptrNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func isDuplicate(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

// natural-key timestamps are stored at second precision in UTC
func keyTime(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- businesses ----

func (r *Repo) BusinessExists(ctx context.Context, yelpID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, businessExistsSQL, yelpID).Scan(&ok)
	return ok, err
}

func (r *Repo) InsertBusiness(ctx context.Context, b domain.Business) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertBusinessSQL,
		b.YelpID,
		b.YelpName,
		b.ImageURL,
		b.IsClaimed,
		b.IsClosed,
		b.URL,
		b.Price,
		b.Rating.StringFixed(2),
		b.ReviewCount,
		b.Phone,
		valStr(b.Photo1URL),
		valStr(b.Photo2URL),
		valStr(b.Photo3URL),
		valF64(b.Latitude),
		valF64(b.Longitude),
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, domain.ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetBusiness(ctx context.Context, yelpID string) (domain.Business, error) {
	var (
		b          domain.Business
		p1, p2, p3 sql.NullString
		lat, lon   sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, getBusinessSQL, yelpID).Scan(
		&b.ID, &b.CreatedAt, &b.YelpID, &b.YelpName, &b.ImageURL, &b.IsClaimed, &b.IsClosed,
		&b.URL, &b.Price, &b.Rating, &b.ReviewCount, &b.Phone,
		&p1, &p2, &p3, &lat, &lon,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, err
	}
	b.Photo1URL, b.Photo2URL, b.Photo3URL = ptrNullStr(p1), ptrNullStr(p2), ptrNullStr(p3)
	b.Latitude, b.Longitude = ptrNullF64(lat), ptrNullF64(lon)
	return b, nil
}

// ---- reviews ----

func (r *Repo) ReviewExists(ctx context.Context, yelpID string, createdAt time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, reviewExistsSQL, yelpID, keyTime(createdAt)).Scan(&ok)
	return ok, err
}

func (r *Repo) InsertReview(ctx context.Context, rv domain.Review) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		rv.YelpID,
		rv.Rating,
		rv.YelpUserImageURL,
		rv.YelpUserName,
		rv.Text,
		keyTime(rv.ReviewCreatedAt),
		rv.BusinessURL,
		rv.BusinessReviewCount,
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, domain.ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) ListPendingReviews(ctx context.Context, yelpID string) ([]domain.Review, error) {
	return r.queryReviews(ctx, listPendingReviewsSQL, yelpID)
}

func (r *Repo) ListReviews(ctx context.Context, yelpID string) ([]domain.Review, error) {
	return r.queryReviews(ctx, listReviewsSQL, yelpID)
}

func (r *Repo) queryReviews(ctx context.Context, q string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv                           domain.Review
			gender, captions, emo, sent  sql.NullString
			age                          sql.NullInt64
			capConf, emoScore, sentScore sql.NullFloat64
		)
		if err := rows.Scan(
			&rv.ID, &rv.CreatedAt, &rv.YelpID, &rv.Rating, &rv.YelpUserImageURL, &rv.YelpUserName,
			&rv.Text, &rv.ReviewCreatedAt, &rv.BusinessURL, &rv.BusinessReviewCount,
			&gender, &age, &captions, &capConf, &emo, &emoScore, &sent, &sentScore,
		); err != nil {
			return nil, err
		}
		rv.VisionGender = ptrNullStr(gender)
		rv.VisionAge = ptrNullInt(age)
		rv.VisionDescriptionCaptions = ptrNullStr(captions)
		rv.VisionDescriptionCaptionsConfidence = ptrNullF64(capConf)
		rv.Emotion = ptrNullStr(emo)
		rv.EmotionScores = ptrNullF64(emoScore)
		rv.Sentiment = ptrNullStr(sent)
		rv.SentimentScores = ptrNullF64(sentScore)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UpdateEnrichment(ctx context.Context, id int64, e domain.Enrichment) error {
	var (
		gender, captions, emotion *string
		age                       *int
		capConf, emoScore         *float64
	)
	if e.Face != nil {
		gender, age = &e.Face.Gender, &e.Face.Age
	}
	if e.Caption != nil {
		captions, capConf = &e.Caption.Text, &e.Caption.Confidence
	}
	if e.Emotion != nil {
		emotion, emoScore = &e.Emotion.Label, &e.Emotion.Score
	}
	res, err := r.db.ExecContext(ctx, updateEnrichmentSQL,
		valStr(gender),
		valInt(age),
		valStr(captions),
		valF64(capConf),
		valStr(emotion),
		valF64(emoScore),
		e.Sentiment.Label,
		e.Sentiment.Score,
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyEnriched
	}
	return nil
}
