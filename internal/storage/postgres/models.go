package postgres

import (
	"time"

	"github.com/ndarenkov/pollwise/internal/entity"
)

// GORM models used for persistence. The schema itself is owned by the SQL
// migrations under migrations/; column tags here must stay in sync with them.
type UserModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	PassHash  []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type PollModel struct {
	ID        int64     `gorm:"primaryKey"`
	Question  string    `gorm:"not null"`
	AuthorID  string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type OptionModel struct {
	ID       int64  `gorm:"primaryKey"`
	PollID   int64  `gorm:"not null;index"`
	Text     string `gorm:"not null"`
	Position int    `gorm:"not null"`
}

type VoteModel struct {
	ID        int64  `gorm:"primaryKey"`
	PollID    int64  `gorm:"not null;uniqueIndex:idx_votes_poll_user"`
	OptionID  int64  `gorm:"not null;index"`
	UserID    string `gorm:"not null;uniqueIndex:idx_votes_poll_user"`
	CreatedAt time.Time
}

func (UserModel) TableName() string   { return "users" }
func (PollModel) TableName() string   { return "polls" }
func (OptionModel) TableName() string { return "options" }
func (VoteModel) TableName() string   { return "votes" }

func userFromModel(m UserModel) entity.User {
	return entity.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		PassHash:  m.PassHash,
		CreatedAt: m.CreatedAt,
	}
}

func pollFromModel(m PollModel) entity.Poll {
	return entity.Poll{
		ID:        m.ID,
		Question:  m.Question,
		AuthorID:  m.AuthorID,
		CreatedAt: m.CreatedAt,
	}
}

func optionFromModel(m OptionModel) entity.Option {
	return entity.Option{
		ID:       m.ID,
		PollID:   m.PollID,
		Text:     m.Text,
		Position: m.Position,
	}
}

func voteFromModel(m VoteModel) entity.Vote {
	return entity.Vote{
		ID:        m.ID,
		PollID:    m.PollID,
		OptionID:  m.OptionID,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}
