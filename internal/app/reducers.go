package app

import (
	"math"
	"sort"

	"review_enrichment/internal/domain"
)

const (
	sentimentNegativeMax = 0.33333
	sentimentPositiveMin = 0.66666
)

// visionPart is what the image analysis contributes to an Enrichment.
type visionPart struct {
	caption *domain.Caption
	face    *domain.Face
}

// reduceVision picks the first caption and the first face. Captions are only
// taken when the response carries a categories key.
func reduceVision(v domain.VisionResult) visionPart {
	var out visionPart
	if v.HasCategories() && v.Description != nil && len(v.Description.Captions) > 0 {
		c := v.Description.Captions[0]
		out.caption = &domain.Caption{Text: c.Text, Confidence: c.Confidence}
	}
	if len(v.Faces) > 0 {
		f := v.Faces[0]
		out.face = &domain.Face{Gender: f.Gender, Age: int(math.Round(f.Age))}
	}
	return out
}

// selectEmotion returns the highest-scoring label of the first face. Ties go
// to the label that comes first in domain.EmotionLabels.
func selectEmotion(faces []domain.EmotionFace) *domain.EmotionScore {
	if len(faces) == 0 {
		return nil
	}
	pairs := faces[0].Scores.Pairs()
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	top := pairs[0]
	return &top
}

func classifySentiment(score float64) domain.SentimentResult {
	label := domain.SentimentNeutral
	switch {
	case score <= sentimentNegativeMax:
		label = domain.SentimentNegative
	case score >= sentimentPositiveMin:
		label = domain.SentimentPositive
	}
	return domain.SentimentResult{Label: label, Score: score}
}
