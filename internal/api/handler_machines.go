package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laundrospin-backend/internal/model"
	"laundrospin-backend/internal/store"
)

// machineResponse is a machine annotated with its active session, or
// null when idle. The join happens at query time; nothing is stored.
type machineResponse struct {
	model.Machine
	ActiveSession *model.Session `json:"active_session"`
}

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.store.ListMachines(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machines"})
		return
	}

	activeSessions, err := h.store.ActiveSessions(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sessions"})
		return
	}

	response := make([]machineResponse, 0, len(machines))
	for _, machine := range machines {
		item := machineResponse{Machine: machine}
		if sess, ok := activeSessions[machine.ID]; ok {
			item.ActiveSession = &sess
		}
		response = append(response, item)
	}
	c.JSON(http.StatusOK, response)
}

// GetMachine handles GET /api/machines/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid machine ID"})
		return
	}

	machine, err := h.store.GetMachine(c.Request.Context(), id)
	if errors.Is(err, store.ErrMachineNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machine"})
		return
	}

	active, err := h.store.ActiveSession(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		return
	}

	c.JSON(http.StatusOK, machineResponse{Machine: *machine, ActiveSession: active})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetMachineStatus handles PATCH /api/machines/:id/status, the
// administrative/simulation path. Unrecognized status values are
// ignored and the current machine returned, for compatibility with the
// original contract.
func (h *Handler) SetMachineStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid machine ID"})
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := h.store.SetMachineStatus(c.Request.Context(), id, model.MachineStatus(req.Status))
	if errors.Is(err, store.ErrMachineNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update machine"})
		return
	}

	h.invalidate()
	c.JSON(http.StatusOK, machine)
}
