package types

import (
	"time"

	"github.com/google/uuid"
)

// AgentMessage represents a message in the format expected by the LLM.
type AgentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is an inbound chat message, independent of the platform it
// arrived on.
type ChatMessage struct {
	ID          string `json:"id,omitempty"`
	AuthorID    string `json:"author_id" binding:"required"`
	AuthorIsBot bool   `json:"author_is_bot,omitempty"`
	ChannelID   string `json:"channel_id" binding:"required"`
	CategoryID  string `json:"category_id,omitempty"`
	Content     string `json:"content"`
	MentionsBot bool   `json:"mentions_bot,omitempty"`
}

// NextStepRequest asks for the next step of a walkthrough.
type NextStepRequest struct {
	AuthorID  string `json:"author_id" binding:"required"`
	ChannelID string `json:"channel_id" binding:"required"`
}

// MatchRequest asks which trigger a message would hit.
type MatchRequest struct {
	Content    string `json:"content" binding:"required"`
	ChannelID  string `json:"channel_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
}

// CardField is one row of a rich card.
type CardField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Card is a platform-neutral rich card.
type Card struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Color       int         `json:"color,omitempty"`
	Fields      []CardField `json:"fields,omitempty"`
	Footer      string      `json:"footer,omitempty"`
	Image       string      `json:"image,omitempty"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
}

// ReplyResponse is the HTTP rendering of a reply.
type ReplyResponse struct {
	Kind         string   `json:"kind"`
	TriggerID    string   `json:"trigger_id,omitempty"`
	Text         string   `json:"text,omitempty"`
	HTML         string   `json:"html,omitempty"`
	Chunks       []string `json:"chunks,omitempty"`
	Card         *Card    `json:"card,omitempty"`
	HasMoreSteps bool     `json:"has_more_steps"`
	Step         int      `json:"step,omitempty"`
	TotalSteps   int      `json:"total_steps,omitempty"`
}

// MatchResponse reports the winning trigger, if any.
type MatchResponse struct {
	Matched   bool    `json:"matched"`
	TriggerID string  `json:"trigger_id,omitempty"`
	Phrase    string  `json:"phrase,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// Interaction is one answered message, as stored in the interaction log.
type Interaction struct {
	ID        uuid.UUID `json:"id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	TriggerID string    `json:"trigger_id,omitempty"`
	Kind      string    `json:"kind"`
	Steps     []string  `json:"steps,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
