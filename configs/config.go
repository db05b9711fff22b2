package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultProfileKey = "default"

// MinPublishClaimTimeout bounds PUBLISH_CLAIM_TIMEOUT from below. A publish
// attempt can take up to seven Graph calls of 30s each plus container
// polling, and a claim reclaimed while still in flight publishes twice.
const MinPublishClaimTimeout = 5 * time.Minute

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Graph struct {
	BaseURL string
	Version string
}

// Profile holds the raw (possibly "enc:" prefixed) Meta credentials of one brand.
type Profile struct {
	PageID        string
	PageToken     string
	IGUserID      string
	IGAccessToken string
}

type Log struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Config struct {
	Port                string
	PostgresURI         string
	RedisURI            string
	FrontendURL         string
	PublicBaseURL       string
	SecretKey           string
	APIToken            string
	TokenTTL            time.Duration
	CronSchedule        string
	PublishClaimTimeout time.Duration
	Graph               Graph
	Profiles            map[string]Profile
	DefaultProfile      string
	R2                  R2
	Log                 Log
}

func LoadConfig() *Config {
	return &Config{
		Port:                getEnv("PORT", "3000"),
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", ""),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		PublicBaseURL:       strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		SecretKey:           getEnv("SECRET_KEY", ""),
		APIToken:            getEnv("API_TOKEN", ""),
		TokenTTL:            getEnvDuration("TOKEN_TTL", 24*time.Hour),
		CronSchedule:        getEnv("CRON_SCHEDULE", "@every 1m"),
		PublishClaimTimeout: max(getEnvDuration("PUBLISH_CLAIM_TIMEOUT", 15*time.Minute), MinPublishClaimTimeout),
		Graph: Graph{
			BaseURL: strings.TrimSuffix(getEnv("META_GRAPH_BASE", "https://graph.facebook.com"), "/"),
			Version: getEnv("META_GRAPH_VERSION", "v24.0"),
		},
		Profiles:       loadProfiles(),
		DefaultProfile: DefaultProfileKey,
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimSuffix(getEnv("R2_PUBLIC_URL", ""), "/"),
		},
		Log: Log{
			Level:      getEnv("LOG_LEVEL", "info"),
			Path:       getEnv("LOG_PATH", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 7),
		},
	}
}

// loadProfiles reads the default profile from the unprefixed META_* variables
// and one extra profile per key listed in META_PROFILES.
func loadProfiles() map[string]Profile {
	profiles := map[string]Profile{
		DefaultProfileKey: loadProfile("META_"),
	}

	for _, key := range strings.Split(getEnv("META_PROFILES", ""), ",") {
		key = strings.TrimSpace(key)
		if key == "" || key == DefaultProfileKey {
			continue
		}
		profiles[key] = loadProfile("META_" + strings.ToUpper(key) + "_")
	}
	return profiles
}

func loadProfile(prefix string) Profile {
	pageToken := getEnv(prefix+"PAGE_ACCESS_TOKEN", "")
	return Profile{
		PageID:        getEnv(prefix+"PAGE_ID", ""),
		PageToken:     pageToken,
		IGUserID:      getEnv(prefix+"IG_USER_ID", ""),
		IGAccessToken: getEnv(prefix+"IG_ACCESS_TOKEN", pageToken),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
