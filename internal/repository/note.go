package repository

import (
	"context"
	"errors"
	"time"

	"murmur/internal/models"
	"murmur/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NoteRepository defines persistence operations for notes. Each user has
// at most one note; saving replaces any previous one.
type NoteRepository interface {
	Save(ctx context.Context, note *models.Note) error
	GetByUserID(ctx context.Context, userID string) (*models.Note, error)
	Delete(ctx context.Context, userID string) error
	FeedPage(ctx context.Context, cursor *pagination.Cursor) (*pagination.Page[models.Note], error)
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository returns a new NoteRepository implementation.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

// Save upserts the user's note. A replaced note moves to the top of the
// feed because updated_at is refreshed on conflict.
func (r *noteRepository) Save(ctx context.Context, note *models.Note) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"content":      note.Content,
			"is_anonymous": note.IsAnonymous,
			"updated_at":   time.Now().Unix(),
		}),
	}).Create(note).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *noteRepository) GetByUserID(ctx context.Context, userID string) (*models.Note, error) {
	var note models.Note
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &note, nil
}

func (r *noteRepository) Delete(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Note{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("note not found")
	}
	return nil
}

// FeedPage returns one page of the public note feed, most recently
// updated first.
func (r *noteRepository) FeedPage(ctx context.Context, cursor *pagination.Cursor) (*pagination.Page[models.Note], error) {
	var rows []models.Note
	q := r.db.WithContext(ctx).
		Model(&models.Note{}).
		Preload("User")
	if err := pagination.Keyset(q, "updated_at", cursor).Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	page := pagination.NewPage(rows, func(n models.Note) (int64, string) {
		return n.UpdatedAt, n.ID
	})
	return &page, nil
}
