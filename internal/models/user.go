// internal/models/user.go
package models

import "time"

// User is keyed by wallet address. Users are merged on first
// interaction and never deleted.
type User struct {
	Address   string    `json:"address"`
	Username  string    `json:"username,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURI string    `json:"avatar_uri,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a user plus the counters the profile page shows.
type Profile struct {
	User
	CreatedCount  int64 `json:"created_count"`
	OwnedCount    int64 `json:"owned_count"`
	FavoriteCount int64 `json:"favorite_count"`
}
