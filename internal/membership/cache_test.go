package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"server/internal/domain"
)

func TestCacheServesFreshValue(t *testing.T) {
	calls := 0
	c := NewCache(func(context.Context) (Resolution, error) {
		calls++
		return Resolution{Authenticated: true, Tier: domain.TierYearly}, nil
	}, 30*time.Second)

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		res, err := c.Get(context.Background(), false)
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if res.Tier != domain.TierYearly {
			t.Fatalf("Get() tier = %q, want yearly", res.Tier)
		}
	}
	if calls != 1 {
		t.Fatalf("resolve called %d times, want 1", calls)
	}

	now = now.Add(31 * time.Second)
	if _, err := c.Get(context.Background(), false); err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("resolve called %d times after TTL, want 2", calls)
	}
}

func TestCacheForceRefresh(t *testing.T) {
	calls := 0
	c := NewCache(func(context.Context) (Resolution, error) {
		calls++
		return Resolution{Tier: domain.TierTrial}, nil
	}, time.Hour)

	if _, err := c.Get(context.Background(), false); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if _, err := c.Get(context.Background(), true); err != nil {
		t.Fatalf("Get(force) error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("resolve called %d times, want 2 (force bypasses cache)", calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	calls := 0
	c := NewCache(func(context.Context) (Resolution, error) {
		calls++
		return Resolution{}, nil
	}, time.Hour)

	if _, err := c.Get(context.Background(), false); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	c.Invalidate()
	if _, err := c.Get(context.Background(), false); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("resolve called %d times, want 2 after Invalidate", calls)
	}
}

func TestCacheKeepsValueOnFailedRefresh(t *testing.T) {
	fail := false
	c := NewCache(func(context.Context) (Resolution, error) {
		if fail {
			return Resolution{}, errors.New("down")
		}
		return Resolution{Tier: domain.TierQuarterly}, nil
	}, time.Hour)

	if _, err := c.Get(context.Background(), false); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	fail = true
	if _, err := c.Get(context.Background(), true); err == nil {
		t.Fatalf("Get(force) expected error from failed refresh")
	}

	fail = false
	res, err := c.Get(context.Background(), false)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if res.Tier != domain.TierQuarterly {
		t.Fatalf("Get() tier = %q, want quarterly retained", res.Tier)
	}
}

func TestCacheTTLByClientClass(t *testing.T) {
	if CacheTTL(ClientDesktop) >= CacheTTL(ClientMobile) {
		t.Fatalf("desktop TTL %v should be shorter than mobile TTL %v", CacheTTL(ClientDesktop), CacheTTL(ClientMobile))
	}
}
