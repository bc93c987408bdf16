package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laundrospin-backend/internal/pricing"
	"laundrospin-backend/internal/store"
)

// No binding validation on machine_id: an absent or zero id falls
// through to the store lookup and answers 404, matching the original
// contract.
type startSessionRequest struct {
	MachineID     int64  `json:"machine_id"`
	UserName      string `json:"user_name"`
	BufferMinutes int    `json:"buffer_minutes"`
}

// StartSession handles POST /api/sessions.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), req.MachineID, req.UserName, req.BufferMinutes)
	switch {
	case errors.Is(err, store.ErrMachineNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	case errors.Is(err, store.ErrMachineUnavailable):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Machine not available"})
		return
	case errors.Is(err, pricing.ErrNegativeMinutes):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Buffer minutes must be non-negative"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	h.invalidate()
	c.JSON(http.StatusCreated, sess)
}

// EndSession handles PATCH /api/sessions/:id/end, the pickup path.
func (h *Handler) EndSession(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	sess, err := h.sessions.End(c.Request.Context(), id)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	case errors.Is(err, store.ErrSessionAlreadyEnded):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Session already ended"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}

	h.invalidate()
	c.JSON(http.StatusOK, sess)
}
