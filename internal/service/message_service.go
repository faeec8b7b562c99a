package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/pagination"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"github.com/google/uuid"
)

// MessageService covers sending, deleting, and paging anonymous
// messages.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
}

// SendMessageInput describes one incoming message. SenderID is empty
// for anonymous senders.
type SendMessageInput struct {
	ReceiverUsername string
	Question         string
	Content          string
	SenderID         string
}

// NewMessageService builds a MessageService.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository) *MessageService {
	return &MessageService{messages: messages, users: users}
}

// Send delivers a message to a receiver looked up by username. Quiet
// mode on the receiver rejects anonymous delivery; signed sends pass.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if err := validation.ValidateMessageContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	receiver, err := s.users.GetByUsername(ctx, in.ReceiverUsername)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, models.NewNotFoundError("user not found")
	}
	if receiver.QuietMode && in.SenderID == "" {
		return nil, models.NewValidationError("user is not accepting anonymous messages")
	}

	message := &models.Message{
		ID:         uuid.NewString(),
		Question:   in.Question,
		Content:    in.Content,
		ReceiverID: receiver.ID,
	}
	if in.SenderID != "" {
		message.SenderID = &in.SenderID
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Delete removes one of the caller's received messages. Deleting
// another user's message reports not-found rather than leaking that the
// message exists.
func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	message, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message == nil || message.ReceiverID != userID {
		return models.NewNotFoundError("message not found")
	}
	return s.messages.Delete(ctx, messageID)
}

// Inbox returns one page of the caller's received messages.
func (s *MessageService) Inbox(ctx context.Context, userID string, cursor *pagination.Cursor) (*pagination.Page[models.Message], error) {
	return s.messages.InboxPage(ctx, userID, cursor)
}
