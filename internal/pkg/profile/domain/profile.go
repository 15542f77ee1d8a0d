package profile

import "time"

// Profile is the slice of user data the messaging surface needs.
type Profile struct {
	UserID      string    `db:"user_id"`
	DisplayName string    `db:"display_name"`
	AvatarURL   *string   `db:"avatar_url"`
	UpdatedAt   time.Time `db:"updated_at"`
}
