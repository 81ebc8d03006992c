package shared

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const DefaultBusinessID = "gary-danko-san-francisco"

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string `validate:"required"`
	HTTPTimeout time.Duration
	MetricsAddr string
	MySQLDSN    string `validate:"required"`
	RedisAddr   string `validate:"required,hostname_port"`
	RedisDB     int    `validate:"gte=0"`
	RedisPass   string
	CacheTTL    time.Duration `validate:"gte=0"`

	YelpBase         string `validate:"required,url"`
	YelpClientID     string
	YelpClientSecret string
	YelpRPS          int           `validate:"min=1"`
	DirectoryTimeout time.Duration `validate:"gt=0"`

	VisionURL         string `validate:"required,url"`
	VisionKey         string
	EmotionURL        string `validate:"required,url"`
	EmotionKey        string
	SentimentURL      string `validate:"required,url"`
	SentimentKey      string
	ClassifierTimeout time.Duration `validate:"gt=0"`

	EnrichWorkers int           `validate:"min=1,max=64"`
	EnrichLockTTL time.Duration `validate:"gt=0"`

	IngestWorkers  int `validate:"min=1,max=64"`
	BusinessIDs    []string
	SearchTerm     string
	SearchLocation string
	SearchLimit    int `validate:"gte=0,lte=50"`
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	secs := func(k string, def int) time.Duration { return time.Duration(atoi(k, def)) * time.Second }

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		HTTPTimeout: secs("HTTP_TIMEOUT_SECONDS", 60),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/enrich?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    secs("CACHE_TTL_SECONDS", 900),

		YelpBase:         strings.TrimRight(env("YELP_BASE_URL", "https://api.yelp.com"), "/"),
		YelpClientID:     env("YELP_CLIENT_ID", ""),
		YelpClientSecret: env("YELP_CLIENT_SECRET", ""),
		YelpRPS:          atoi("YELP_RPS", 5),
		DirectoryTimeout: secs("DIRECTORY_TIMEOUT_SECONDS", 20),

		VisionURL:         env("VISION_URL", "https://westus.api.cognitive.microsoft.com/vision/v1.0/analyze"),
		VisionKey:         env("VISION_KEY", ""),
		EmotionURL:        env("EMOTION_URL", "https://westus.api.cognitive.microsoft.com/emotion/v1.0/recognize"),
		EmotionKey:        env("EMOTION_KEY", ""),
		SentimentURL:      env("SENTIMENT_URL", "https://westus.api.cognitive.microsoft.com/text/analytics/v2.0/sentiment"),
		SentimentKey:      env("SENTIMENT_KEY", ""),
		ClassifierTimeout: secs("CLASSIFIER_TIMEOUT_SECONDS", 10),

		EnrichWorkers: atoi("ENRICH_WORKERS", 4),
		EnrichLockTTL: secs("ENRICH_LOCK_TTL_SECONDS", 120),

		IngestWorkers:  atoi("INGEST_WORKERS", 4),
		BusinessIDs:    splitList(env("INGEST_BUSINESS_IDS", DefaultBusinessID)),
		SearchTerm:     env("SEARCH_TERM", "dinner"),
		SearchLocation: env("SEARCH_LOCATION", "San Francisco, CA"),
		SearchLimit:    atoi("SEARCH_LIMIT", 5),
	}
	for _, k := range c.MissingSecrets() {
		log.Warn().Msgf("%s is empty", k)
	}
	return c
}

// MissingSecrets lists the credential variables that are unset.
func (c Config) MissingSecrets() []string {
	var out []string
	for k, v := range map[string]string{
		"YELP_CLIENT_ID":     c.YelpClientID,
		"YELP_CLIENT_SECRET": c.YelpClientSecret,
		"VISION_KEY":         c.VisionKey,
		"EMOTION_KEY":        c.EmotionKey,
		"SENTIMENT_KEY":      c.SentimentKey,
	} {
		if v == "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

var validate = validator.New()

// Validate checks the struct tags and reports every offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, ve := range ves {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", ve.Field(), ve.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
