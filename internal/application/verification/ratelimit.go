package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-verify-api/internal/config"
	"github.com/go-verify-api/internal/domain"
	"github.com/go-verify-api/internal/pkg/clock"
)

const (
	rateWindowKeyPrefix   = "verify:window:"
	pushCooldownKeyPrefix = "verify:push-sent:"
)

// windowSnapshot is the cached shape of the trailing-window query: how many
// records exist for the phone and how many of them are still active.
type windowSnapshot struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// RateLimiter decides whether a new verification for a phone is admissible
// and whether the push channel may be attempted. Admission reads a cached
// per-phone snapshot of the trailing window; the snapshot TTL is short so a
// retry burst within the same second never re-queries the store.
type RateLimiter struct {
	store  Store
	cache  Cache
	clock  clock.Clock
	limits config.Limits
}

func NewRateLimiter(store Store, cache Cache, clk clock.Clock, limits config.Limits) *RateLimiter {
	return &RateLimiter{store: store, cache: cache, clock: clk, limits: limits}
}

// Admit returns ErrMaxLiveExceeded when the phone has hit either the
// trailing-window creation cap or the simultaneously-active cap. The
// snapshot is rewritten after every store computation, rejections included.
func (l *RateLimiter) Admit(ctx context.Context, phone string) error {
	key := rateWindowKeyPrefix + phone
	snap, hit := l.cachedSnapshot(ctx, key)
	if !hit {
		now := l.clock.Now()
		recent, err := l.store.ListRecentByPhone(ctx, phone, now.Add(-l.limits.RateWindow))
		if err != nil {
			return fmt.Errorf("rate window query: %w", err)
		}
		snap = windowSnapshot{Total: len(recent)}
		for i := range recent {
			if recent[i].IsActive(now) {
				snap.Active++
			}
		}
		l.putSnapshot(ctx, key, snap)
	}

	if snap.Total >= l.limits.MaxPerHour || snap.Active >= l.limits.MaxAtOnce {
		return fmt.Errorf("phone %s: %w", phone, domain.ErrMaxLiveExceeded)
	}
	return nil
}

// ShouldAttemptPush reports whether the push channel may be tried for this
// phone and, when it may, records the attempt in the same operation. SetNX
// makes the read-and-set atomic: of two concurrent requests at the cooldown
// boundary exactly one sees true.
//
// A cache outage degrades to SMS rather than risking duplicate pushes.
func (l *RateLimiter) ShouldAttemptPush(ctx context.Context, phone string) bool {
	key := pushCooldownKeyPrefix + phone
	won, err := l.cache.SetNX(ctx, key, l.clock.Now().Format(time.RFC3339), l.limits.PushCooldown)
	if err != nil {
		slog.Warn("push cooldown check unavailable, using sms", "phone", phone, "err", err)
		return false
	}
	return won
}

// cachedSnapshot treats any cache failure as a miss; admission must not
// depend on cache availability.
func (l *RateLimiter) cachedSnapshot(ctx context.Context, key string) (windowSnapshot, bool) {
	var snap windowSnapshot
	raw, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("rate window cache read failed", "key", key, "err", err)
		return snap, false
	}
	if !ok {
		return snap, false
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		slog.Warn("rate window cache entry corrupt", "key", key, "err", err)
		return snap, false
	}
	return snap, true
}

func (l *RateLimiter) putSnapshot(ctx context.Context, key string, snap windowSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := l.cache.Put(ctx, key, string(raw), l.limits.SnapshotTTL); err != nil {
		slog.Warn("rate window cache write failed", "key", key, "err", err)
	}
}
