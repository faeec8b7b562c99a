package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/pagination"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"github.com/google/uuid"
)

// NoteService covers the single-note-per-user board and its public feed.
type NoteService struct {
	notes repository.NoteRepository
}

// NewNoteService builds a NoteService.
func NewNoteService(notes repository.NoteRepository) *NoteService {
	return &NoteService{notes: notes}
}

// Save writes or replaces the caller's note and returns the stored row.
func (s *NoteService) Save(ctx context.Context, userID, content string, isAnonymous bool) (*models.Note, error) {
	if err := validation.ValidateNoteContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	note := &models.Note{
		ID:          uuid.NewString(),
		UserID:      userID,
		Content:     content,
		IsAnonymous: isAnonymous,
	}
	if err := s.notes.Save(ctx, note); err != nil {
		return nil, err
	}
	return s.notes.GetByUserID(ctx, userID)
}

// Mine returns the caller's note, or nil when none exists.
func (s *NoteService) Mine(ctx context.Context, userID string) (*models.Note, error) {
	return s.notes.GetByUserID(ctx, userID)
}

// Delete removes the caller's note.
func (s *NoteService) Delete(ctx context.Context, userID string) error {
	return s.notes.Delete(ctx, userID)
}

// Feed returns one page of the public note feed. Anonymous notes keep
// their author hidden.
func (s *NoteService) Feed(ctx context.Context, cursor *pagination.Cursor) (*pagination.Page[models.Note], error) {
	page, err := s.notes.FeedPage(ctx, cursor)
	if err != nil {
		return nil, err
	}
	for i := range page.Data {
		if page.Data[i].IsAnonymous {
			page.Data[i].User = nil
			page.Data[i].UserID = ""
		}
	}
	return page, nil
}
