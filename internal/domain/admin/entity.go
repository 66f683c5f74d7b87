// internal/domain/admin/entity.go
package admin

import "time"

type AdminUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FavoriteVKM is the summary of a favorited module embedded in a user.
type FavoriteVKM struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"shortDescription"`
}

// UserWithFavorites is the user detail. FavoriteVKMs is the canonical shape;
// FavoriteVKMIDs is the older ID-only form some backends still send.
type UserWithFavorites struct {
	AdminUser
	FavoriteVKMs   []FavoriteVKM `json:"favoriteVKMs,omitempty"`
	FavoriteVKMIDs []string      `json:"favoriteVkmIds,omitempty"`
}
