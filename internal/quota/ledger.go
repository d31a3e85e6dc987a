// Package quota meters per-lesson AI-chat usage against tier-specific daily
// limits. Counters live in a shared Redis store keyed by user, lesson and UTC
// calendar day; increments are atomic at the store so concurrent chat turns
// for the same key never lose updates.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Counter keys carry an explicit day component so the daily window is correct
// on any store configuration; the TTL only bounds leftover keys.
const counterTTL = 48 * time.Hour

// Limit is a daily chat-turn allowance. Unlimited short-circuits all counter
// store I/O.
type Limit struct {
	N         int
	Unlimited bool
}

// Usage reports current consumption against a limit.
type Usage struct {
	Count int
	Limit Limit
}

// Remaining returns the turns left today. Only meaningful for bounded limits.
func (u Usage) Remaining() int {
	if u.Limit.Unlimited {
		return 0
	}
	if r := u.Limit.N - u.Count; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether the daily allowance is used up.
func (u Usage) Exhausted() bool {
	if u.Limit.Unlimited {
		return false
	}
	return u.Count >= u.Limit.N
}

type counterStore interface {
	// Get returns the current count, 0 when the key does not exist.
	Get(ctx context.Context, key string) (int64, error)
	// Incr atomically increments the key and applies ttl on first increment.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Ledger tracks daily chat usage per (user, lesson).
type Ledger struct {
	store  counterStore
	limits map[domain.Tier]Limit
	dayLoc *time.Location
	logger zerolog.Logger
	now    func() time.Time
}

// NewLedger validates the per-tier limit table and returns a Ledger. The table
// must name every tier; a partial table is a deployment misconfiguration.
func NewLedger(store counterStore, limits map[domain.Tier]Limit, dayLoc *time.Location, logger zerolog.Logger) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: counter store is required", domain.ErrNotConfigured)
	}
	for _, tier := range domain.Tiers() {
		if _, ok := limits[tier]; !ok {
			return nil, fmt.Errorf("%w: no daily limit configured for tier %q", domain.ErrNotConfigured, tier)
		}
	}
	if dayLoc == nil {
		dayLoc = time.UTC
	}
	copied := make(map[domain.Tier]Limit, len(limits))
	for tier, limit := range limits {
		copied[tier] = limit
	}
	return &Ledger{store: store, limits: copied, dayLoc: dayLoc, logger: logger, now: time.Now}, nil
}

// NewRedisLedger builds a Ledger backed by the shared Redis counter store.
func NewRedisLedger(client *redis.Client, limits map[domain.Tier]Limit, dayLoc *time.Location, logger zerolog.Logger) (*Ledger, error) {
	return NewLedger(&redisStore{client: client}, limits, dayLoc, logger)
}

// LimitFor looks up the daily limit for an effective tier. Sample content
// grants at least the trial allowance so visitors can exercise
// try-before-you-buy lessons.
func (l *Ledger) LimitFor(tier domain.Tier, sample bool) Limit {
	limit := l.limits[tier]
	if sample && !tier.AtLeast(domain.TierTrial) {
		trial := l.limits[domain.TierTrial]
		if trial.Unlimited || trial.N > limit.N {
			limit = trial
		}
	}
	return limit
}

// Usage returns today's consumption for the (user, lesson) pair under the
// given limit. Unlimited returns without touching the store. A store read
// failure returns a zero count alongside a wrapped domain.ErrStoreUnavailable:
// the caller logs it and proceeds with the fail-open value rather than
// blocking legitimate use on an infra hiccup.
func (l *Ledger) Usage(ctx context.Context, userID, lessonID string, limit Limit) (Usage, error) {
	if limit.Unlimited {
		return Usage{Count: 0, Limit: limit}, nil
	}
	count, err := l.store.Get(ctx, l.key(userID, lessonID))
	if err != nil {
		return Usage{Count: 0, Limit: limit}, fmt.Errorf("%w: read counter: %v", domain.ErrStoreUnavailable, err)
	}
	return Usage{Count: int(count), Limit: limit}, nil
}

// Increment charges one chat turn. The increment is a single atomic store op;
// a dropped response after a successful increment still leaves the ledger
// correct, since the completion was generated. On store failure the turn
// proceeds uncharged and the caller logs the wrapped error.
func (l *Ledger) Increment(ctx context.Context, userID, lessonID string) (int, error) {
	count, err := l.store.Incr(ctx, l.key(userID, lessonID), counterTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: increment counter: %v", domain.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

func (l *Ledger) key(userID, lessonID string) string {
	day := l.now().In(l.dayLoc).Format("2006-01-02")
	return fmt.Sprintf("chat:%s:%s:%s", userID, lessonID, day)
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (s *redisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
