package handlers

import (
	"context"
	"net/http"
	"strconv"

	"smart-response/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InteractionLister reads the interaction log.
type InteractionLister interface {
	RecentInteractions(ctx context.Context, limit int) ([]types.Interaction, error)
}

type InteractionHandler struct {
	store  InteractionLister
	logger *zap.Logger
}

// NewInteractionHandler accepts a nil store when the log is disabled.
func NewInteractionHandler(store InteractionLister, logger *zap.Logger) *InteractionHandler {
	return &InteractionHandler{store: store, logger: logger}
}

func (h *InteractionHandler) List(c *gin.Context) {
	if h.store == nil {
		respondWithClientError(c, http.StatusServiceUnavailable, "Interaction log is disabled")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithClientError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	interactions, err := h.store.RecentInteractions(c.Request.Context(), limit)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to load interactions", h.logger)
		return
	}
	if interactions == nil {
		interactions = []types.Interaction{}
	}
	c.JSON(http.StatusOK, gin.H{"interactions": interactions})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
