package domain

// ---- classifier responses ----

// VisionResult mirrors the image-analysis response. Every top-level key may be
// absent; a nil Categories slice means the key was missing or null.
type VisionResult struct {
	Categories  []VisionCategory   `json:"categories"`
	Description *VisionDescription `json:"description"`
	Faces       []VisionFace       `json:"faces"`
}

func (v VisionResult) HasCategories() bool { return v.Categories != nil }

type VisionCategory struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type VisionDescription struct {
	Captions []VisionCaption `json:"captions"`
}

type VisionCaption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type VisionFace struct {
	Gender string  `json:"gender"`
	Age    float64 `json:"age"`
}

// EmotionFace is one element of the emotion classifier's response array.
type EmotionFace struct {
	Scores EmotionScores `json:"scores"`
}

type EmotionScores struct {
	Anger     float64 `json:"anger"`
	Contempt  float64 `json:"contempt"`
	Disgust   float64 `json:"disgust"`
	Fear      float64 `json:"fear"`
	Happiness float64 `json:"happiness"`
	Neutral   float64 `json:"neutral"`
	Sadness   float64 `json:"sadness"`
	Surprise  float64 `json:"surprise"`
}

// EmotionLabels is the fixed enumeration order used for tie-breaking.
var EmotionLabels = [8]string{"anger", "contempt", "disgust", "fear", "happiness", "neutral", "sadness", "surprise"}

// Pairs returns (label, score) pairs in EmotionLabels order.
func (s EmotionScores) Pairs() []EmotionScore {
	vals := [8]float64{s.Anger, s.Contempt, s.Disgust, s.Fear, s.Happiness, s.Neutral, s.Sadness, s.Surprise}
	out := make([]EmotionScore, len(EmotionLabels))
	for i, l := range EmotionLabels {
		out[i] = EmotionScore{Label: l, Score: vals[i]}
	}
	return out
}

// ---- derived fields ----

type Caption struct {
	Text       string
	Confidence float64
}

type Face struct {
	Gender string
	Age    int
}

type EmotionScore struct {
	Label string
	Score float64
}

type SentimentResult struct {
	Label string
	Score float64
}

const (
	SentimentNegative = "Negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "Positive"
)

// Enrichment is the per-review accumulator written back in a single update.
// A fresh value is built for every review.
type Enrichment struct {
	Caption   *Caption
	Face      *Face
	Emotion   *EmotionScore
	Sentiment SentimentResult
}

// Missing lists the optional derived fields the classifiers produced no value for.
func (e Enrichment) Missing() []string {
	var out []string
	if e.Caption == nil {
		out = append(out, "vision_description_captions")
	}
	if e.Face == nil {
		out = append(out, "vision_face")
	}
	if e.Emotion == nil {
		out = append(out, "emotion")
	}
	return out
}
