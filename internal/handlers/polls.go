package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ndarenkov/pollwise/internal/services/polls"
)

type PollsHandler struct {
	pollsService *polls.Polls
}

type CreatePollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

type SubmitVoteRequest struct {
	OptionID int64 `json:"option_id" binding:"required"`
}

func NewPollsHandler(pollsService *polls.Polls) *PollsHandler {
	return &PollsHandler{pollsService: pollsService}
}

func (h *PollsHandler) ListPolls(c *gin.Context) {
	// Empty when the request carries no (valid) token; the listing is public.
	userID := c.GetString("userID")

	views, err := h.pollsService.ListPolls(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"polls": views})
}

func (h *PollsHandler) GetPoll(c *gin.Context) {
	pollID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll id"})
		return
	}

	userID := c.GetString("userID")

	view, err := h.pollsService.GetPoll(c.Request.Context(), pollID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": view})
}

func (h *PollsHandler) CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pollID, err := h.pollsService.CreatePoll(c.Request.Context(), userID, req.Question, req.Options)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"poll_id": pollID})
}

func (h *PollsHandler) SubmitVote(c *gin.Context) {
	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.pollsService.SubmitVote(c.Request.Context(), userID, req.OptionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError translates the service error taxonomy into HTTP statuses.
// StorageUnavailable maps to 503 so clients know a retry is safe.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, polls.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, polls.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": "already voted"})
	case errors.Is(err, polls.ErrInvalidTarget):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "option does not exist"})
	case errors.Is(err, polls.ErrPollNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
	case errors.Is(err, polls.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, polls.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
