package repository

import (
	"context"
	"errors"

	"murmur/internal/models"
	"murmur/internal/pagination"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for anonymous messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	Delete(ctx context.Context, id string) error
	InboxPage(ctx context.Context, receiverID string, cursor *pagination.Cursor) (*pagination.Page[models.Message], error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("message not found")
	}
	return nil
}

// InboxPage returns one page of the receiver's messages, newest first.
func (r *messageRepository) InboxPage(ctx context.Context, receiverID string, cursor *pagination.Cursor) (*pagination.Page[models.Message], error) {
	var rows []models.Message
	q := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ?", receiverID).
		Preload("Sender")
	if err := pagination.Keyset(q, "created_at", cursor).Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	page := pagination.NewPage(rows, func(m models.Message) (int64, string) {
		return m.CreatedAt, m.ID
	})
	return &page, nil
}
