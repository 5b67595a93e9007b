package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/ndarenkov/pollwise/internal/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Storage is the single process-wide persistence handle. It owns one GORM
// connection pool, initialized once at startup and injected into the services.
type Storage struct {
	db *gorm.DB
}

func New(postgresURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := gorm.Open(postgres.Open(postgresURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveUser inserts a new user row. Email uniqueness is enforced by the schema.
func (s *Storage) SaveUser(ctx context.Context, id, name, email string, passHash []byte) (string, error) {
	const op = "storage.postgres.SaveUser"

	model := UserModel{
		ID:        id,
		Name:      name,
		Email:     email,
		PassHash:  passHash,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrUserAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return model.ID, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (entity.User, error) {
	const op = "storage.postgres.UserByEmail"

	var model UserModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return userFromModel(model), nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (entity.User, error) {
	const op = "storage.postgres.UserByID"

	var model UserModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return userFromModel(model), nil
}

// SavePoll creates the poll and all its options in one transaction,
// all-or-nothing. Option order follows the order of optionTexts.
func (s *Storage) SavePoll(ctx context.Context, question, authorID string, optionTexts []string) (entity.Poll, error) {
	const op = "storage.postgres.SavePoll"

	model := PollModel{
		Question:  question,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}

		options := make([]OptionModel, 0, len(optionTexts))
		for i, text := range optionTexts {
			options = append(options, OptionModel{
				PollID:   model.ID,
				Text:     text,
				Position: i,
			})
		}
		return tx.Create(&options).Error
	})
	if err != nil {
		return entity.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return pollFromModel(model), nil
}

func (s *Storage) PollByID(ctx context.Context, id int64) (entity.Poll, error) {
	const op = "storage.postgres.PollByID"

	var model PollModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
		}
		return entity.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return pollFromModel(model), nil
}

// Polls returns all polls, newest first.
func (s *Storage) Polls(ctx context.Context) ([]entity.Poll, error) {
	const op = "storage.postgres.Polls"

	var models []PollModel
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	polls := make([]entity.Poll, 0, len(models))
	for _, m := range models {
		polls = append(polls, pollFromModel(m))
	}
	return polls, nil
}

func (s *Storage) OptionsByPollID(ctx context.Context, pollID int64) ([]entity.Option, error) {
	const op = "storage.postgres.OptionsByPollID"

	var models []OptionModel
	err := s.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	options := make([]entity.Option, 0, len(models))
	for _, m := range models {
		options = append(options, optionFromModel(m))
	}
	return options, nil
}

// SaveVote records userID's vote for optionID. The option is resolved to its
// poll so the row lands under the UNIQUE(poll_id, user_id) constraint: that
// constraint, not application logic, is the sole vote-integrity arbiter
// across concurrent submissions.
func (s *Storage) SaveVote(ctx context.Context, optionID int64, userID string) (entity.Vote, error) {
	const op = "storage.postgres.SaveVote"

	var option OptionModel
	err := s.db.WithContext(ctx).First(&option, "id = ?", optionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Vote{}, fmt.Errorf("%s: %w", op, storage.ErrOptionNotFound)
		}
		return entity.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	model := VoteModel{
		PollID:    option.PollID,
		OptionID:  optionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return entity.Vote{}, fmt.Errorf("%s: %w", op, storage.ErrAlreadyVoted)
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return entity.Vote{}, fmt.Errorf("%s: %w", op, storage.ErrOptionNotFound)
		}
		return entity.Vote{}, fmt.Errorf("%s: %w", op, err)
	}

	return voteFromModel(model), nil
}

// VoteCountsByPoll aggregates vote totals per option for one poll. Options
// with no votes are absent from the map.
func (s *Storage) VoteCountsByPoll(ctx context.Context, pollID int64) (map[int64]int64, error) {
	const op = "storage.postgres.VoteCountsByPoll"

	var rows []struct {
		OptionID int64
		Votes    int64
	}
	err := s.db.WithContext(ctx).
		Model(&VoteModel{}).
		Select("option_id, count(*) AS votes").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Votes
	}
	return counts, nil
}

// UserVote returns the option userID voted for within pollID, 0 when none.
func (s *Storage) UserVote(ctx context.Context, userID string, pollID int64) (int64, error) {
	const op = "storage.postgres.UserVote"

	var model VoteModel
	err := s.db.WithContext(ctx).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return model.OptionID, nil
}
