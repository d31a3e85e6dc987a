package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/quota"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	RedisURL         string
	CredentialSecret string
	CredentialIssuer string
	CredentialAud    string
	CredentialTTL    time.Duration
	AllowedOrigins   []string
	DefaultLocale    string
	GeoIPDBPath      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	// SectionFloors and TierLimits are the externally adjustable mappings
	// behind permission checks and quota enforcement. They are data, not
	// logic: changing them must never require touching the evaluator or
	// the ledger.
	SectionFloors map[domain.Section]domain.Tier
	DefaultFloor  domain.Tier
	TierLimits    map[domain.Tier]quota.Limit

	// QuotaDayLocation controls where the daily quota window rolls over.
	QuotaDayLocation *time.Location
}

const (
	defaultSectionFloors = "daily=trial,cognitive=quarterly,business=yearly"
	defaultTierLimits    = "visitor=0,trial=3,quarterly=20,yearly=50,lifetime=unlimited"
)

// IsProduction reports whether the server runs in production. Development
// overrides are gated on this flag and on nothing the client can influence.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Missing or malformed required mappings are a
// deployment fault and fail hard.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		CredentialSecret: os.Getenv("CREDENTIAL_SECRET"),
		CredentialIssuer: getEnv("CREDENTIAL_ISSUER", "membergate"),
		CredentialAud:    getEnv("CREDENTIAL_AUDIENCE", "members"),
		CredentialTTL:    time.Hour * time.Duration(getEnvInt("CREDENTIAL_TTL_HOURS", 720)),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if o := strings.TrimSpace(origin); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is required", domain.ErrNotConfigured)
	}
	if cfg.CredentialSecret == "" {
		return nil, fmt.Errorf("%w: CREDENTIAL_SECRET is required", domain.ErrNotConfigured)
	}
	if cfg.RedisURL == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("%w: REDIS_URL is required in production", domain.ErrNotConfigured)
	}

	floors, err := parseSectionFloors(getEnv("SECTION_TIER_FLOORS", defaultSectionFloors))
	if err != nil {
		return nil, err
	}
	cfg.SectionFloors = floors

	defaultFloor, err := domain.ParseTier(getEnv("SECTION_DEFAULT_FLOOR", string(domain.TierYearly)))
	if err != nil {
		return nil, fmt.Errorf("%w: SECTION_DEFAULT_FLOOR: %v", domain.ErrNotConfigured, err)
	}
	cfg.DefaultFloor = defaultFloor

	limits, err := parseTierLimits(getEnv("TIER_DAILY_LIMITS", defaultTierLimits))
	if err != nil {
		return nil, err
	}
	cfg.TierLimits = limits

	loc := time.UTC
	if name := os.Getenv("QUOTA_DAY_LOCATION"); name != "" {
		loc, err = time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("%w: QUOTA_DAY_LOCATION: %v", domain.ErrNotConfigured, err)
		}
	}
	cfg.QuotaDayLocation = loc

	return cfg, nil
}

// parseSectionFloors parses "daily=trial,cognitive=quarterly,..." pairs.
func parseSectionFloors(raw string) (map[domain.Section]domain.Tier, error) {
	floors := make(map[domain.Section]domain.Tier)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		section, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: SECTION_TIER_FLOORS entry %q is not section=tier", domain.ErrNotConfigured, pair)
		}
		tier, err := domain.ParseTier(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: SECTION_TIER_FLOORS: %v", domain.ErrNotConfigured, err)
		}
		floors[domain.Section(strings.TrimSpace(section))] = tier
	}
	if len(floors) == 0 {
		return nil, fmt.Errorf("%w: SECTION_TIER_FLOORS is empty", domain.ErrNotConfigured)
	}
	return floors, nil
}

// parseTierLimits parses "trial=3,...,lifetime=unlimited" pairs. Every tier
// must appear.
func parseTierLimits(raw string) (map[domain.Tier]quota.Limit, error) {
	limits := make(map[domain.Tier]quota.Limit)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: TIER_DAILY_LIMITS entry %q is not tier=limit", domain.ErrNotConfigured, pair)
		}
		tier, err := domain.ParseTier(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w: TIER_DAILY_LIMITS: %v", domain.ErrNotConfigured, err)
		}
		value = strings.TrimSpace(value)
		if strings.EqualFold(value, "unlimited") {
			limits[tier] = quota.Limit{Unlimited: true}
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: TIER_DAILY_LIMITS limit %q for tier %q", domain.ErrNotConfigured, value, tier)
		}
		limits[tier] = quota.Limit{N: n}
	}
	for _, tier := range domain.Tiers() {
		if _, ok := limits[tier]; !ok {
			return nil, fmt.Errorf("%w: TIER_DAILY_LIMITS missing tier %q", domain.ErrNotConfigured, tier)
		}
	}
	return limits, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
