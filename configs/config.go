package config

import (
	"os"
	"strconv"
	"time"
)

const (
	PlaceholderAccessToken  = "YOUR_ACCESS_TOKEN"
	PlaceholderAdvertiserID = "YOUR_ADVERTISER_ID"
	DefaultTiktokBaseURL    = "https://business-api.tiktok.com/open_api/v1.3/"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

// Enabled reports whether creative archiving to R2 is configured.
func (r R2) Enabled() bool {
	return r.BucketName != ""
}

type Tiktok struct {
	AccessToken  string
	AdvertiserID string
	BaseURL      string
	Timeout      time.Duration
}

type Config struct {
	Tiktok               Tiktok
	PostgresURI          string
	RedisURI             string
	Port                 string
	ReconcileSchedule    string
	ReconcileConcurrency int
	R2                   R2
}

func LoadConfig() *Config {
	return &Config{
		Tiktok: Tiktok{
			AccessToken:  getEnv("TIKTOK_ACCESS_TOKEN", PlaceholderAccessToken),
			AdvertiserID: getEnv("TIKTOK_ADVERTISER_ID", PlaceholderAdvertiserID),
			BaseURL:      getEnv("TIKTOK_API_BASE_URL", DefaultTiktokBaseURL),
			Timeout:      time.Duration(getEnvInt("TIKTOK_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", "localhost:6379"),
		Port:                 getEnv("PORT", "3000"),
		ReconcileSchedule:    getEnv("RECONCILE_SCHEDULE", "@every 00h10m00s"),
		ReconcileConcurrency: getEnvInt("RECONCILE_CONCURRENCY", 5),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
	}
}

// HasPlaceholderCredentials is true when either TikTok setting fell back to
// its placeholder. Remote calls still go out and fail on the platform side.
func (c *Config) HasPlaceholderCredentials() bool {
	return c.Tiktok.AccessToken == PlaceholderAccessToken || c.Tiktok.AdvertiserID == PlaceholderAdvertiserID
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
