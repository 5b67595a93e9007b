// Package api is a typed HTTP client for the pollwise API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client-side mirror of the server error taxonomy, recovered from the HTTP
// status of an error response.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAlreadyVoted           = errors.New("already voted in this poll")
	ErrInvalidTarget          = errors.New("vote target does not exist")
	ErrValidation             = errors.New("validation error")
	ErrStorageUnavailable     = errors.New("storage unavailable")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type Poll struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type OptionView struct {
	ID       int64  `json:"id"`
	PollID   int64  `json:"poll_id"`
	Text     string `json:"text"`
	Position int    `json:"position"`
	Votes    int64  `json:"votes"`
}

type PollView struct {
	Poll     Poll         `json:"poll"`
	Options  []OptionView `json:"options"`
	UserVote int64        `json:"user_vote"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", payload, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", payload, &resp); err != nil {
		return TokenPair{}, err
	}
	return resp, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload := map[string]string{"refresh_token": refreshToken}
	var resp TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", "", payload, &resp); err != nil {
		return TokenPair{}, err
	}
	return resp, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	payload := map[string]string{"refresh_token": refreshToken}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", "", payload, nil)
}

// ListPolls fetches the poll listing. With an empty token the listing is
// anonymous; with a token each view carries the caller's recorded vote.
func (c *Client) ListPolls(ctx context.Context, token string) ([]PollView, error) {
	var resp struct {
		Polls []PollView `json:"polls"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/polls", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Polls, nil
}

func (c *Client) GetPoll(ctx context.Context, token string, pollID int64) (PollView, error) {
	var resp struct {
		Poll PollView `json:"poll"`
	}
	path := fmt.Sprintf("/api/polls/%d", pollID)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return PollView{}, err
	}
	return resp.Poll, nil
}

func (c *Client) CreatePoll(ctx context.Context, token, question string, options []string) (int64, error) {
	payload := map[string]any{"question": question, "options": options}
	var resp struct {
		PollID int64 `json:"poll_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/polls", token, payload, &resp); err != nil {
		return 0, err
	}
	return resp.PollID, nil
}

func (c *Client) SubmitVote(ctx context.Context, token string, optionID int64) error {
	payload := map[string]int64{"option_id": optionID}
	return c.doJSON(ctx, http.MethodPost, "/api/votes", token, payload, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all is indistinguishable from an unavailable
		// backend; the caller owns the retry policy.
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)
	if envelope.Error == "" {
		envelope.Error = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = ErrAuthenticationRequired
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusUnprocessableEntity:
		sentinel = ErrInvalidTarget
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusBadRequest:
		sentinel = ErrValidation
	case http.StatusServiceUnavailable:
		sentinel = ErrStorageUnavailable
	default:
		return fmt.Errorf("api: %s", envelope.Error)
	}

	// A 409 on a vote submission is a duplicate vote.
	if sentinel == ErrConflict && strings.Contains(envelope.Error, "voted") {
		sentinel = ErrAlreadyVoted
	}
	return fmt.Errorf("%w: %s", sentinel, envelope.Error)
}
