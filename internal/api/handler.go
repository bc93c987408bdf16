package api

import (
	"github.com/patrickmn/go-cache"

	"laundrospin-backend/internal/session"
	"laundrospin-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	sessions *session.Manager
	cache    *cache.Cache
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, manager *session.Manager, cacheStore *cache.Cache) *Handler {
	return &Handler{
		store:    s,
		sessions: manager,
		cache:    cacheStore,
	}
}

// invalidate drops every cached GET response. Called by mutating
// handlers so machine views never serve pre-mutation state.
func (h *Handler) invalidate() {
	if h.cache != nil {
		h.cache.Flush()
	}
}
