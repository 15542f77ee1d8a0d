package profile

import (
	"context"
	"time"

	cacheport "github.com/poke-max/jomach-sub000/internal/infrastructure/cache/port"
	profile "github.com/poke-max/jomach-sub000/internal/pkg/profile/domain"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/profile/repository/port"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

const defaultNameTTL = 10 * time.Minute

// Directory resolves display names with a cache-aside lookup: cache first,
// repository on miss, cache write-back with TTL. Cache failures degrade to the
// repository; both failing falls back to the raw id at the caller.
type Directory struct {
	repo  repository.ProfileRepository
	cache cacheport.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewDirectory(repo repository.ProfileRepository, cache cacheport.Cache, log *logger.Logger) *Directory {
	return &Directory{repo: repo, cache: cache, ttl: defaultNameTTL, log: log}
}

func nameKey(userID string) string { return "profile:name:" + userID }

// DisplayName implements the name resolution used for notification titles and
// conversation list rendering.
func (d *Directory) DisplayName(ctx context.Context, userID string) (string, error) {
	if d.cache != nil {
		name, err := d.cache.Get(ctx, nameKey(userID))
		if err == nil && name != "" {
			return name, nil
		}
		if err != nil && err != cacheport.ErrMiss {
			d.log.Warn("profile cache read failed", "user_id", userID, "err", err)
		}
	}

	p, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if d.cache != nil && p.DisplayName != "" {
		if err := d.cache.Set(ctx, nameKey(userID), p.DisplayName, d.ttl); err != nil {
			d.log.Warn("profile cache write failed", "user_id", userID, "err", err)
		}
	}
	return p.DisplayName, nil
}

// Save upserts the profile and drops the cached name so the next read sees
// the new value.
func (d *Directory) Save(ctx context.Context, p profile.Profile) error {
	if err := d.repo.Upsert(ctx, p); err != nil {
		return err
	}
	if d.cache != nil {
		if _, err := d.cache.Del(ctx, nameKey(p.UserID)); err != nil {
			d.log.Warn("profile cache invalidation failed", "user_id", p.UserID, "err", err)
		}
	}
	return nil
}
