package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/ndarenkov/pollwise/internal/entity"
	"github.com/ndarenkov/pollwise/internal/storage"
)

// Error taxonomy of the voting core. Handlers translate these to HTTP
// statuses; nothing below this package is expected to inspect storage errors.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAlreadyVoted           = errors.New("already voted in this poll")
	ErrInvalidTarget          = errors.New("vote target does not exist")
	ErrValidation             = errors.New("validation error")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrPollNotFound           = errors.New("poll not found")
)

const minOptions = 2

type Polls struct {
	log          *slog.Logger
	pollStorage  PollStorage
	voteStorage  VoteStorage
	listingCache ListingCache
}

type PollStorage interface {
	SavePoll(ctx context.Context, question, authorID string, optionTexts []string) (entity.Poll, error)
	PollByID(ctx context.Context, id int64) (entity.Poll, error)
	Polls(ctx context.Context) ([]entity.Poll, error)
	OptionsByPollID(ctx context.Context, pollID int64) ([]entity.Option, error)
}

type VoteStorage interface {
	SaveVote(ctx context.Context, optionID int64, userID string) (entity.Vote, error)
	VoteCountsByPoll(ctx context.Context, pollID int64) (map[int64]int64, error)
	UserVote(ctx context.Context, userID string, pollID int64) (int64, error)
}

type ListingCache interface {
	Get(ctx context.Context) ([]entity.PollView, bool, error)
	Set(ctx context.Context, views []entity.PollView) error
	Invalidate(ctx context.Context) error
}

func NewPolls(
	log *slog.Logger,
	pollStorage PollStorage,
	voteStorage VoteStorage,
	listingCache ListingCache,
) *Polls {
	return &Polls{
		log:          log,
		pollStorage:  pollStorage,
		voteStorage:  voteStorage,
		listingCache: listingCache,
	}
}

// SubmitVote records userID's vote for optionID. The cheap local check
// (authentication) is rejected before any persistence call; duplicate votes
// and unknown options are detected from the storage layer's rejection of the
// insert. A duplicate is the expected outcome of a retry or a race between
// two optimistic submissions, not a bug condition.
func (p *Polls) SubmitVote(ctx context.Context, userID string, optionID int64) error {
	const op = "polls.SubmitVote"

	log := p.log.With(slog.String("op", op), slog.Int64("optionID", optionID))

	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}

	vote, err := p.voteStorage.SaveVote(ctx, optionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyVoted):
			log.Info("duplicate vote rejected")
			return fmt.Errorf("%s: %w", op, ErrAlreadyVoted)
		case errors.Is(err, storage.ErrOptionNotFound):
			log.Warn("vote for unknown option", sl.Err(err))
			return fmt.Errorf("%s: %w", op, ErrInvalidTarget)
		}
		log.Error("failed to save vote", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
	}

	// Mark the cached listing stale; the next read refetches. A cache error
	// must not fail a confirmed vote.
	if err := p.listingCache.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate listing cache", sl.Err(err))
	}

	log.Info("vote recorded", slog.Int64("pollID", vote.PollID))
	return nil
}

// CreatePoll creates a poll with its options atomically. Requires an
// authenticated author, a non-empty question and at least two non-empty
// option texts.
func (p *Polls) CreatePoll(ctx context.Context, authorID, question string, optionTexts []string) (int64, error) {
	const op = "polls.CreatePoll"

	log := p.log.With(slog.String("op", op))

	if authorID == "" {
		return 0, fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return 0, fmt.Errorf("%w: question is empty", ErrValidation)
	}

	texts := make([]string, 0, len(optionTexts))
	for _, text := range optionTexts {
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, fmt.Errorf("%w: option text is empty", ErrValidation)
		}
		texts = append(texts, text)
	}
	if len(texts) < minOptions {
		return 0, fmt.Errorf("%w: at least %d options required", ErrValidation, minOptions)
	}

	poll, err := p.pollStorage.SavePoll(ctx, question, authorID, texts)
	if err != nil {
		log.Error("failed to save poll", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
	}

	if err := p.listingCache.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate listing cache", sl.Err(err))
	}

	log.Info("poll created", slog.Int64("pollID", poll.ID))
	return poll.ID, nil
}

// ListPolls assembles the read model: polls newest first, options in creation
// order with vote counts, and — when userID is non-empty — the option that
// user voted for. The projection is side-effect free apart from refreshing
// the listing cache, and tolerates concurrent vote submissions: a vote
// landing mid-read may or may not appear.
func (p *Polls) ListPolls(ctx context.Context, userID string) ([]entity.PollView, error) {
	const op = "polls.ListPolls"

	log := p.log.With(slog.String("op", op))

	views, cached, err := p.listingCache.Get(ctx)
	if err != nil {
		log.Warn("listing cache read failed", sl.Err(err))
		cached = false
	}

	if !cached {
		views, err = p.buildListing(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := p.listingCache.Set(ctx, views); err != nil {
			log.Warn("failed to cache listing", sl.Err(err))
		}
	}

	if userID == "" {
		return views, nil
	}

	// The cached part is user-independent; the current user's votes are
	// always read live.
	for i := range views {
		optionID, err := p.voteStorage.UserVote(ctx, userID, views[i].Poll.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		views[i].UserVote = optionID
	}

	return views, nil
}

// GetPoll returns a single poll's read model.
func (p *Polls) GetPoll(ctx context.Context, pollID int64, userID string) (entity.PollView, error) {
	const op = "polls.GetPoll"

	poll, err := p.pollStorage.PollByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			return entity.PollView{}, fmt.Errorf("%s: %w", op, ErrPollNotFound)
		}
		return entity.PollView{}, fmt.Errorf("%s: %w", op, err)
	}

	view, err := p.buildView(ctx, poll)
	if err != nil {
		return entity.PollView{}, fmt.Errorf("%s: %w", op, err)
	}

	if userID != "" {
		optionID, err := p.voteStorage.UserVote(ctx, userID, pollID)
		if err != nil {
			return entity.PollView{}, fmt.Errorf("%s: %w", op, err)
		}
		view.UserVote = optionID
	}

	return view, nil
}

func (p *Polls) buildListing(ctx context.Context) ([]entity.PollView, error) {
	polls, err := p.pollStorage.Polls(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]entity.PollView, 0, len(polls))
	for _, poll := range polls {
		view, err := p.buildView(ctx, poll)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (p *Polls) buildView(ctx context.Context, poll entity.Poll) (entity.PollView, error) {
	options, err := p.pollStorage.OptionsByPollID(ctx, poll.ID)
	if err != nil {
		return entity.PollView{}, err
	}

	counts, err := p.voteStorage.VoteCountsByPoll(ctx, poll.ID)
	if err != nil {
		return entity.PollView{}, err
	}

	optionViews := make([]entity.OptionView, 0, len(options))
	for _, option := range options {
		optionViews = append(optionViews, entity.OptionView{
			Option: option,
			Votes:  counts[option.ID],
		})
	}

	return entity.PollView{Poll: poll, Options: optionViews}, nil
}
