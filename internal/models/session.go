package models

// Session is a server-side login session addressed by an opaque ID carried
// in an http-only cookie. A user may hold multiple concurrent sessions
// (multi-device); rows are removed on logout or after expiry.
type Session struct {
	ID        string `gorm:"primaryKey" json:"id"`
	UserID    string `gorm:"index;not null" json:"user_id"`
	ExpiresAt int64  `gorm:"not null" json:"expires_at"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
}
