package infra

import (
	"errors"
	"testing"

	"server/internal/domain"
)

func TestParseSectionFloors(t *testing.T) {
	floors, err := parseSectionFloors("daily=trial, cognitive=quarterly ,business=yearly")
	if err != nil {
		t.Fatalf("parseSectionFloors() error: %v", err)
	}
	if floors[domain.SectionDaily] != domain.TierTrial {
		t.Fatalf("daily floor = %q, want trial", floors[domain.SectionDaily])
	}
	if floors[domain.SectionBusiness] != domain.TierYearly {
		t.Fatalf("business floor = %q, want yearly", floors[domain.SectionBusiness])
	}
}

func TestParseSectionFloorsRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "daily", "daily=gold", "=trial"} {
		if _, err := parseSectionFloors(raw); !errors.Is(err, domain.ErrNotConfigured) {
			t.Fatalf("parseSectionFloors(%q) error = %v, want ErrNotConfigured", raw, err)
		}
	}
}

func TestParseTierLimits(t *testing.T) {
	limits, err := parseTierLimits("visitor=0,trial=3,quarterly=20,yearly=50,lifetime=unlimited")
	if err != nil {
		t.Fatalf("parseTierLimits() error: %v", err)
	}
	if got := limits[domain.TierQuarterly]; got.N != 20 || got.Unlimited {
		t.Fatalf("quarterly limit = %+v, want 20", got)
	}
	if got := limits[domain.TierLifetime]; !got.Unlimited {
		t.Fatalf("lifetime limit = %+v, want unlimited", got)
	}
}

func TestParseTierLimitsRequiresEveryTier(t *testing.T) {
	if _, err := parseTierLimits("trial=3"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("parseTierLimits() error = %v, want ErrNotConfigured", err)
	}
}

func TestParseTierLimitsRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"visitor=0,trial=-1,quarterly=20,yearly=50,lifetime=unlimited",
		"visitor=0,trial=abc,quarterly=20,yearly=50,lifetime=unlimited",
		"gold=3",
	} {
		if _, err := parseTierLimits(raw); !errors.Is(err, domain.ErrNotConfigured) {
			t.Fatalf("parseTierLimits(%q) error = %v, want ErrNotConfigured", raw, err)
		}
	}
}

func TestLoadConfigRequiresSecretAndDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CREDENTIAL_SECRET", "")
	if _, err := LoadConfig(); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("LoadConfig() error = %v, want ErrNotConfigured", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/content")
	if _, err := LoadConfig(); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("LoadConfig() without secret error = %v, want ErrNotConfigured", err)
	}

	t.Setenv("CREDENTIAL_SECRET", "secret")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.IsProduction() {
		t.Fatalf("default APP_ENV should not be production")
	}
	if len(cfg.SectionFloors) == 0 || len(cfg.TierLimits) == 0 {
		t.Fatalf("LoadConfig() expected default floor and limit tables")
	}
}

func TestLoadConfigProductionRequiresRedis(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/content")
	t.Setenv("CREDENTIAL_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_URL", "")
	if _, err := LoadConfig(); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("LoadConfig() error = %v, want ErrNotConfigured", err)
	}
}
