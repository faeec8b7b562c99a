// Package models contains data structures for the application's domain models.
package models

// User represents a Murmur account holder. Users are created on first
// successful OAuth login or through explicit signup, and are never
// hard-deleted.
type User struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	Username    string  `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName *string `json:"display_name,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	// QuietMode blocks new anonymous messages to this user.
	QuietMode bool `gorm:"default:false" json:"quiet_mode"`
	// PasswordHash is set only for accounts created through explicit signup.
	PasswordHash string    `json:"-"`
	CreatedAt    int64     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    int64     `gorm:"autoUpdateTime" json:"updated_at"`
	Accounts     []Account `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
}

// Account links an external identity provider identity to a local user.
// The composite primary key guarantees at most one row per
// (provider, provider user) pair.
type Account struct {
	ProviderID     string `gorm:"primaryKey" json:"provider_id"`
	ProviderUserID string `gorm:"primaryKey" json:"provider_user_id"`
	UserID         string `gorm:"index;not null" json:"user_id"`
	Email          string `json:"email"`
	Picture        string `json:"picture"`
	CreatedAt      int64  `gorm:"autoCreateTime" json:"created_at"`
}
