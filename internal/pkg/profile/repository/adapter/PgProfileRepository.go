package adapter

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	profile "github.com/poke-max/jomach-sub000/internal/pkg/profile/domain"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
)

type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

func (r *PgProfileRepository) GetByID(ctx context.Context, userID string) (*profile.Profile, error) {
	var p profile.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, display_name, avatar_url, updated_at
		FROM chat.profile
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		if pkgerrors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.NotFound("profile not found")
		}
		return nil, pkgerrors.Wrap(err, "profileRepo.GetByID.Scan")
	}
	return &p, nil
}

func (r *PgProfileRepository) Upsert(ctx context.Context, p profile.Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.profile (user_id, display_name, avatar_url, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id)
		DO UPDATE SET display_name = EXCLUDED.display_name,
		              avatar_url = EXCLUDED.avatar_url,
		              updated_at = now()
	`, p.UserID, p.DisplayName, p.AvatarURL)
	return pkgerrors.Wrap(err, "profileRepo.Upsert.Exec")
}
