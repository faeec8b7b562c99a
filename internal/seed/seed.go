// Package seed provides helpers to create demo data for development and
// testing. Production startup never calls into this package.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"murmur/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers        int
	MessagesPerUser int
	NoteProbability float64
	MaxDays         int
	ShouldClean     bool
}

// DefaultOptions returns a small data set good for local development.
func DefaultOptions() Options {
	return Options{
		NumUsers:        12,
		MessagesPerUser: 15,
		NoteProbability: 0.7,
		MaxDays:         30,
	}
}

var questions = []string{
	"send me an anonymous message!",
	"tell me something you would never say to my face",
	"ask me anything",
	"what do you really think of me?",
	"confess something",
}

// Run populates the database with demo users, inboxes, and notes.
func Run(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return err
		}
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := createUser(db)
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	for _, user := range users {
		for i := 0; i < opts.MessagesPerUser; i++ {
			if err := createMessage(db, r, user, users, opts.MaxDays); err != nil {
				return err
			}
		}
		if r.Float64() < opts.NoteProbability {
			if err := createNote(db, r, user); err != nil {
				return err
			}
		}
	}

	log.Printf("Seeded %d users with messages and notes", len(users))
	return nil
}

func clean(db *gorm.DB) error {
	for _, model := range []any{
		&models.Message{}, &models.Note{}, &models.Session{}, &models.Account{}, &models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clean seed data: %w", err)
		}
	}
	return nil
}

func createUser(db *gorm.DB) (*models.User, error) {
	name := gofakeit.Name()
	bio := gofakeit.Sentence(8)
	username := strings.ToLower(gofakeit.Username())
	if len(username) > 20 {
		username = username[:20]
	}

	user := &models.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: &name,
		Bio:         &bio,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	return user, nil
}

func createMessage(db *gorm.DB, r *rand.Rand, receiver *models.User, users []*models.User, maxDays int) error {
	message := &models.Message{
		ID:         uuid.NewString(),
		Question:   questions[r.Intn(len(questions))],
		Content:    gofakeit.Sentence(r.Intn(12) + 3),
		ReceiverID: receiver.ID,
		CreatedAt:  pastUnix(r, maxDays),
	}
	// Roughly a third of messages come from logged-in senders.
	if r.Intn(3) == 0 {
		sender := users[r.Intn(len(users))]
		if sender.ID != receiver.ID {
			message.SenderID = &sender.ID
		}
	}
	if err := db.Create(message).Error; err != nil {
		return fmt.Errorf("seed message: %w", err)
	}
	return nil
}

func createNote(db *gorm.DB, r *rand.Rand, user *models.User) error {
	note := &models.Note{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Content:     gofakeit.Sentence(r.Intn(10) + 3),
		IsAnonymous: r.Intn(4) == 0,
		UpdatedAt:   pastUnix(r, 7),
	}
	if err := db.Create(note).Error; err != nil {
		return fmt.Errorf("seed note: %w", err)
	}
	return nil
}

func pastUnix(r *rand.Rand, maxDays int) int64 {
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(r.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-back).Unix()
}
