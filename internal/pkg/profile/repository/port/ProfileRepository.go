package repository

import (
	"context"

	profile "github.com/poke-max/jomach-sub000/internal/pkg/profile/domain"
)

// ProfileRepository defines persistence for user profile data consumed by the
// messaging surface (display names for conversation lists and notifications).
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*profile.Profile, error)
	Upsert(ctx context.Context, p profile.Profile) error
}
