package conference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/linesmerrill/video-hearings-api/models"
)

// ErrNotFound is returned when a conference id is unknown
var ErrNotFound = errors.New("conference not found")

// fetchTimeout bounds a shared fetch. The fetch is detached from the caller
// that started it so one cancelled request cannot fail the others waiting on it.
const fetchTimeout = 10 * time.Second

// Source loads a conference from the backing store
type Source interface {
	FindConference(ctx context.Context, id string) (*models.Conference, error)
}

// Provider hands out conference snapshots
type Provider interface {
	GetConference(ctx context.Context, id string) (*models.Conference, error)
	ForceGetConference(ctx context.Context, id string) (*models.Conference, error)
}

// Cache is a Provider that coalesces concurrent fetches of the same conference
// and memoizes the result for a short time. Callers always get their own copy.
type Cache struct {
	source Source
	group  singleflight.Group
	memo   *expirable.LRU[string, *models.Conference]
}

// NewCache creates a cache over source holding at most size conferences for ttl
func NewCache(source Source, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{
		source: source,
		memo:   expirable.NewLRU[string, *models.Conference](size, nil, ttl),
	}
}

// GetConference returns the memoized snapshot or fetches it once for every concurrent caller
func (c *Cache) GetConference(ctx context.Context, id string) (*models.Conference, error) {
	if conf, ok := c.memo.Get(id); ok {
		return conf.Clone(), nil
	}
	return c.fetch(ctx, id, id)
}

// ForceGetConference skips the memo. Forced fetches are coalesced with each
// other but never with a regular fetch that may already be stale.
func (c *Cache) ForceGetConference(ctx context.Context, id string) (*models.Conference, error) {
	c.memo.Remove(id)
	return c.fetch(ctx, "force:"+id, id)
}

// Invalidate drops the memoized snapshot for id
func (c *Cache) Invalidate(id string) {
	c.memo.Remove(id)
}

func (c *Cache) fetch(ctx context.Context, key, id string) (*models.Conference, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		conf, err := c.source.FindConference(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		c.memo.Add(id, conf)
		return conf, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, ErrNotFound) {
				zap.S().Errorw("failed to fetch conference",
					"conferenceId", id,
					"error", res.Err)
			}
			return nil, fmt.Errorf("get conference %s: %w", id, res.Err)
		}
		if res.Shared {
			zap.S().Debugw("shared conference fetch", "conferenceId", id)
		}
		return res.Val.(*models.Conference).Clone(), nil
	}
}
