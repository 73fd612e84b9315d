package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Lookup reports whether a record already exists for a document title.
type Lookup interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
}

// Locker hands out short-lived exclusive claims on a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// Gate skips documents that were already processed and, when a Locker is
// configured, serializes work on a single title.
type Gate struct {
	lookup  Lookup
	locker  Locker
	lockTTL time.Duration
	logger  zerolog.Logger
}

func New(lookup Lookup, locker Locker, lockTTL time.Duration, logger zerolog.Logger) *Gate {
	return &Gate{lookup: lookup, locker: locker, lockTTL: lockTTL, logger: logger}
}

// ShouldProcess is a plain existence check with no reservation.
func (g *Gate) ShouldProcess(ctx context.Context, title string) (bool, error) {
	exists, err := g.lookup.ExistsByTitle(ctx, title)
	if err != nil {
		return false, fmt.Errorf("check processed %s failed: %w", title, err)
	}
	return !exists, nil
}

// Claim reserves title until release is called or the lock expires. Without
// a locker every claim succeeds.
func (g *Gate) Claim(ctx context.Context, title string) (release func(), ok bool, err error) {
	if g.locker == nil {
		return func() {}, true, nil
	}
	key := "paperdeck:lock:" + title
	token, ok, err := g.locker.Acquire(ctx, key, g.lockTTL)
	if err != nil {
		return nil, false, fmt.Errorf("claim %s failed: %w", title, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		// the caller's context may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.locker.Release(releaseCtx, key, token); err != nil {
			g.logger.Warn().Err(err).Str("document", title).Msg("release title lock failed")
		}
	}, true, nil
}
