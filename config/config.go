package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"room-leaderboard-service/models"
)

type Config struct {
	Port           string
	DatabaseURL    string
	ServiceToken   string
	ScoreService   string
	AuthService    string
	AllowedOrigins string

	StreamTokenSecret string
	StreamTokenTTL    time.Duration

	TickInterval      time.Duration
	ScoreSyncInterval time.Duration

	LeaderboardVisible       bool
	LeaderboardAlwaysVisible bool
	ResultViewMode           models.ResultViewMode

	TrackingUser models.User

	R2 R2Config
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough is configured to upload to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup func, applying defaults.
func FromEnv(getenv func(string) string) *Config {
	mode, ok := models.ParseResultViewMode(getenv("RESULT_VIEW_MODE"))
	if !ok && getenv("RESULT_VIEW_MODE") != "" {
		log.Printf("⚠️  Unknown RESULT_VIEW_MODE %q, using %q", getenv("RESULT_VIEW_MODE"), mode)
	}

	trackingID := getenv("TRACKING_USER_ID")
	if trackingID == "" {
		trackingID = "local"
	}
	trackingName := getenv("TRACKING_USERNAME")
	if trackingName == "" {
		trackingName = trackingID
	}

	allowed := getenv("ALLOWED_ORIGINS")
	if allowed == "" {
		allowed = "http://localhost:3000"
	}
	origins := strings.Split(allowed, ",")
	for i, o := range origins {
		origins[i] = strings.TrimSpace(o)
	}

	port := getenv("PORT")
	if port == "" {
		port = "5200"
	}

	return &Config{
		Port:                     port,
		DatabaseURL:              getenv("DATABASE_URL"),
		ServiceToken:             getenv("GAME_SERVICE_TOKEN"),
		ScoreService:             getenv("SCORE_SERVICE_URL"),
		AuthService:              getenv("AUTH_SERVICE_URL"),
		StreamTokenSecret:        getenv("STREAM_TOKEN_SECRET"),
		StreamTokenTTL:           durationOr(getenv, "STREAM_TOKEN_TTL", 5*time.Minute),
		AllowedOrigins:           strings.Join(origins, ","),
		TickInterval:             durationOr(getenv, "TICK_INTERVAL", 16*time.Millisecond),
		ScoreSyncInterval:        durationOr(getenv, "SCORE_SYNC_INTERVAL", 10*time.Second),
		LeaderboardVisible:       boolOr(getenv, "LEADERBOARD_VISIBLE", true),
		LeaderboardAlwaysVisible: boolOr(getenv, "LEADERBOARD_ALWAYS_VISIBLE", true),
		ResultViewMode:           mode,
		TrackingUser:             models.User{ID: trackingID, Username: trackingName},
		R2: R2Config{
			AccountID:       getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      getenv("CDN_BASE_URL"),
		},
	}
}

func durationOr(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️  Invalid %s %q, using %s", key, v, def)
		return def
	}
	return d
}

func boolOr(getenv func(string) string, key string, def bool) bool {
	v := getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s %q, using %t", key, v, def)
		return def
	}
	return b
}
