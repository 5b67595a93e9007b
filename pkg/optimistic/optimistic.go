// Package optimistic reconciles an instantaneous local guess about a vote
// with the eventual authoritative result from the server.
//
// The rendered view is always a pure function of the last authoritative
// snapshot plus the pending guess. Because the guess is overlaid rather than
// applied destructively, rollback on failure is just dropping the guess, and
// an authoritative refresh arriving mid-flight does not lose the overlay.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrSubmissionInFlight is returned while a guess is unconfirmed; the
	// second submission is rejected before reaching the server.
	ErrSubmissionInFlight = errors.New("vote submission already in flight")
	// ErrAlreadyVoted is returned when the authoritative view already
	// records a vote by the current user.
	ErrAlreadyVoted = errors.New("already voted in this poll")
	// ErrUnknownOption is returned for an option the view does not contain.
	ErrUnknownOption = errors.New("option not part of this poll")
)

// View is an authoritative snapshot of one poll as last read from the
// server: vote count per option (every option present, zero included) and
// the current user's recorded vote (0 when none).
type View struct {
	PollID   int64
	Counts   map[int64]int64
	UserVote int64
}

func (v View) clone() View {
	counts := make(map[int64]int64, len(v.Counts))
	for optionID, votes := range v.Counts {
		counts[optionID] = votes
	}
	return View{PollID: v.PollID, Counts: counts, UserVote: v.UserVote}
}

// Submitter performs the actual vote call against the server.
type Submitter interface {
	SubmitVote(ctx context.Context, optionID int64) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, optionID int64) error

func (f SubmitterFunc) SubmitVote(ctx context.Context, optionID int64) error {
	return f(ctx, optionID)
}

// Controller tracks one rendered poll. At most one submission is in flight
// at a time; Render may be called concurrently with a submission.
type Controller struct {
	submitter Submitter

	mu            sync.Mutex
	authoritative View
	pending       int64 // option id of the unconfirmed guess, 0 when idle
}

func NewController(submitter Submitter, authoritative View) *Controller {
	return &Controller{
		submitter:     submitter,
		authoritative: authoritative.clone(),
	}
}

// Render returns the view to display: the last authoritative snapshot with
// the pending guess overlaid, recomputed from scratch on every call.
func (c *Controller) Render() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render()
}

func (c *Controller) render() View {
	view := c.authoritative.clone()
	if c.pending != 0 {
		view.Counts[c.pending]++
		view.UserVote = c.pending
	}
	return view
}

// Pending reports whether a submission is in flight. Vote controls must be
// disabled while it returns true.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != 0
}

// SetAuthoritative replaces the snapshot, e.g. from a background refresh.
// A pending guess stays overlaid on the new snapshot.
func (c *Controller) SetAuthoritative(view View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authoritative = view.clone()
}

// Submit applies optionID as an optimistic guess and sends the vote to the
// server. On success the guess is folded into the local snapshot, which then
// converges to the next authoritative read. On failure the guess is dropped,
// returning the view to exactly what it was before the guess, and the error
// is surfaced to the caller.
//
// A second Submit while one is in flight is a no-op at the controller level:
// it fails with ErrSubmissionInFlight without touching the server.
func (c *Controller) Submit(ctx context.Context, optionID int64) error {
	c.mu.Lock()
	if c.pending != 0 {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if c.authoritative.UserVote != 0 {
		c.mu.Unlock()
		return ErrAlreadyVoted
	}
	if _, ok := c.authoritative.Counts[optionID]; !ok {
		c.mu.Unlock()
		return ErrUnknownOption
	}
	c.pending = optionID
	c.mu.Unlock()

	err := c.submitter.SubmitVote(ctx, optionID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.pending = 0
		return fmt.Errorf("vote rejected: %w", err)
	}

	// The increment already shown was correct; keep it locally until the
	// next authoritative read replaces the whole snapshot.
	c.authoritative.Counts[optionID]++
	c.authoritative.UserVote = optionID
	c.pending = 0
	return nil
}
