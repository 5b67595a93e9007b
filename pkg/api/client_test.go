package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestSubmitVote_Success(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/votes", r.URL.Path)
		require.Equal(t, "Bearer token-a", r.Header.Get("Authorization"))

		var body struct {
			OptionID int64 `json:"option_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(10), body.OptionID)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	require.NoError(t, client.SubmitVote(context.Background(), "token-a", 10))
}

func TestSubmitVote_DuplicateMapsToAlreadyVoted(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"already voted"}`))
	})

	err := client.SubmitVote(context.Background(), "token-a", 10)
	require.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestSubmitVote_MissingTokenMapsToAuthRequired(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"missing access token"}`))
	})

	err := client.SubmitVote(context.Background(), "", 10)
	require.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestSubmitVote_ServerDownMapsToStorageUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL)

	err := client.SubmitVote(context.Background(), "token-a", 10)
	require.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestListPolls_DecodesViews(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/polls", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"polls": [
				{
					"poll": {"id": 1, "question": "Best language?"},
					"options": [
						{"id": 10, "poll_id": 1, "text": "Go", "votes": 2},
						{"id": 11, "poll_id": 1, "text": "Rust", "votes": 0}
					],
					"user_vote": 10
				}
			]
		}`))
	})

	views, err := client.ListPolls(context.Background(), "token-a")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Best language?", views[0].Poll.Question)
	require.Len(t, views[0].Options, 2)
	assert.Equal(t, int64(2), views[0].Options[0].Votes)
	assert.Equal(t, int64(10), views[0].UserVote)
}

func TestGetPoll_NotFound(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"poll not found"}`))
	})

	_, err := client.GetPoll(context.Background(), "", 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePoll_ValidationError(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation error: at least 2 options required"}`))
	})

	_, err := client.CreatePoll(context.Background(), "token-a", "Best language?", []string{"Go"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "at least 2 options")
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"access_token":"acc","refresh_token":"ref"}`))
	})

	pair, err := client.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "acc", pair.AccessToken)
	assert.Equal(t, "ref", pair.RefreshToken)
}
