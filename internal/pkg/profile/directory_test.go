package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheport "github.com/poke-max/jomach-sub000/internal/infrastructure/cache/port"
	profile "github.com/poke-max/jomach-sub000/internal/pkg/profile/domain"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

type fakeCache struct {
	data map[string]string
	gets int
	sets int
	err  error
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.sets++
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }
func (f *fakeCache) Close() error               { return nil }

type fakeProfileRepo struct {
	profiles map[string]profile.Profile
	reads    int
}

func (f *fakeProfileRepo) GetByID(_ context.Context, userID string) (*profile.Profile, error) {
	f.reads++
	p, ok := f.profiles[userID]
	if !ok {
		return nil, appErrors.NotFound("profile not found")
	}
	return &p, nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, p profile.Profile) error {
	if f.profiles == nil {
		f.profiles = map[string]profile.Profile{}
	}
	f.profiles[p.UserID] = p
	return nil
}

func TestDisplayNameCacheAside(t *testing.T) {
	repo := &fakeProfileRepo{profiles: map[string]profile.Profile{
		"user1": {UserID: "user1", DisplayName: "Ana Gomez"},
	}}
	cache := newFakeCache()
	dir := NewDirectory(repo, cache, logger.Nop())
	ctx := context.Background()

	name, err := dir.DisplayName(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Gomez", name)
	assert.Equal(t, 1, repo.reads, "miss goes to the repository")
	assert.Equal(t, 1, cache.sets, "result written back")

	name, err = dir.DisplayName(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Gomez", name)
	assert.Equal(t, 1, repo.reads, "hit served from cache")
}

func TestDisplayNameUnknownUser(t *testing.T) {
	dir := NewDirectory(&fakeProfileRepo{}, newFakeCache(), logger.Nop())
	_, err := dir.DisplayName(context.Background(), "ghost")
	assert.True(t, appErrors.Is(err, appErrors.CodeNotFound))
}

func TestDisplayNameSurvivesCacheOutage(t *testing.T) {
	repo := &fakeProfileRepo{profiles: map[string]profile.Profile{
		"user1": {UserID: "user1", DisplayName: "Ana Gomez"},
	}}
	cache := newFakeCache()
	cache.err = assert.AnError
	dir := NewDirectory(repo, cache, logger.Nop())

	name, err := dir.DisplayName(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Gomez", name)
}

func TestSaveInvalidatesCachedName(t *testing.T) {
	repo := &fakeProfileRepo{profiles: map[string]profile.Profile{
		"user1": {UserID: "user1", DisplayName: "Ana Gomez"},
	}}
	cache := newFakeCache()
	dir := NewDirectory(repo, cache, logger.Nop())
	ctx := context.Background()

	_, err := dir.DisplayName(ctx, "user1")
	require.NoError(t, err)

	require.NoError(t, dir.Save(ctx, profile.Profile{UserID: "user1", DisplayName: "Ana G."}))

	name, err := dir.DisplayName(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "Ana G.", name, "stale cached name dropped on save")
}
