package models

// Note is a short public post. Each user has at most one note; saving
// again replaces it. The global notes feed is keyset-paginated over
// (updated_at DESC, id DESC).
type Note struct {
	ID     string `gorm:"primaryKey;index:idx_notes_updated_at_id,priority:2" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content string `gorm:"type:text;not null" json:"content"`
	// IsAnonymous hides the author when the note is displayed.
	IsAnonymous bool  `gorm:"default:false" json:"is_anonymous"`
	CreatedAt   int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   int64 `gorm:"autoUpdateTime;index:idx_notes_updated_at_id,priority:1" json:"updated_at"`
}
