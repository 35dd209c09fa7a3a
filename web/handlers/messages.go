package handlers

import (
	"context"
	"net/http"

	"smart-response/matcher"
	"smart-response/responder"
	"smart-response/session"
	"smart-response/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Responder is what the HTTP API needs from the responder.
type Responder interface {
	Process(ctx context.Context, msg types.ChatMessage) *responder.Reply
	Advance(ctx context.Context, key session.Key) *responder.Reply
	Match(text, channelID, categoryID string) *matcher.Match
}

type MessageHandler struct {
	responder Responder
	logger    *zap.Logger
}

func NewMessageHandler(r Responder, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{responder: r, logger: logger}
}

// PostMessage answers a chat message. Ignored messages get 204.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var msg types.ChatMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	reply := h.responder.Process(c.Request.Context(), msg)
	if reply == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, reply.Response())
}

// NextStep returns the next step of the caller's walkthrough.
func (h *MessageHandler) NextStep(c *gin.Context) {
	var req types.NextStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request")
		return
	}

	reply := h.responder.Advance(c.Request.Context(), session.Key{ChannelID: req.ChannelID, UserID: req.AuthorID})
	c.JSON(http.StatusOK, reply.Response())
}

// Match reports which trigger a message would hit, without answering it.
func (h *MessageHandler) Match(c *gin.Context) {
	var req types.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	m := h.responder.Match(req.Content, req.ChannelID, req.CategoryID)
	if m == nil {
		c.JSON(http.StatusOK, types.MatchResponse{})
		return
	}
	c.JSON(http.StatusOK, types.MatchResponse{
		Matched:   true,
		TriggerID: m.Trigger.ID,
		Phrase:    m.Phrase,
		Score:     m.Score,
	})
}
