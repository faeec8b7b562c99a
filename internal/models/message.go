package models

// Message is a prompt-and-answer message delivered to a user's inbox via
// their public link. SenderID is nil for anonymous sends. The inbox feed
// is keyset-paginated over (created_at DESC, id DESC), backed by the
// composite index below; timestamps are unix seconds and are not unique,
// so the id column is the tie-break.
type Message struct {
	ID         string  `gorm:"primaryKey;index:idx_messages_created_at_id,priority:2" json:"id"`
	Question   string  `gorm:"not null" json:"question"`
	Content    string  `gorm:"type:text;not null" json:"content"`
	ReceiverID string  `gorm:"index;not null" json:"receiver_id"`
	SenderID   *string `gorm:"index" json:"sender_id,omitempty"`
	Sender     *User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	CreatedAt  int64   `gorm:"autoCreateTime;index:idx_messages_created_at_id,priority:1" json:"created_at"`
	UpdatedAt  int64   `gorm:"autoUpdateTime" json:"updated_at"`
}
