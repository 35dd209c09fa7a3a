package responder

import (
	"smart-response/config"
	"smart-response/web/format"
	"smart-response/web/types"
)

// ReplyKind says what a reply carries.
type ReplyKind string

const (
	ReplyText      ReplyKind = "text"
	ReplyCard      ReplyKind = "card"
	ReplyGenerated ReplyKind = "generated"
	ReplyStep      ReplyKind = "step"
	ReplyNotice    ReplyKind = "notice"
)

// User-facing fallback texts.
const (
	ApologyText         = "I apologize, but I encountered an error processing your request."
	RateLimitedText     = "You're sending messages too quickly. Please wait a moment and try again."
	NoContextText       = "Couldn't find conversation context."
	TimedOutText        = "Conversation timed out."
	ProgressErrorText   = "An error occurred while progressing the conversation."
	QuestionFailureText = "I apologize, but I couldn't process your question. Please try rephrasing it."
)

// Reply is a platform-neutral answer. Text is always split into Chunks that
// fit the delivery surface.
type Reply struct {
	Kind         ReplyKind
	TriggerID    string
	Text         string
	Chunks       []string
	Card         *config.Embed
	HasMoreSteps bool
	Step         int
	TotalSteps   int
	// Failed marks apology and notice replies caused by an error.
	Failed bool
}

func (r *Responder) textReply(kind ReplyKind, text string) *Reply {
	return &Reply{
		Kind:   kind,
		Text:   text,
		Chunks: format.SplitMessage(text, r.opts.MaxMessageLength),
	}
}

func (r *Responder) notice(text string) *Reply {
	reply := r.textReply(ReplyNotice, text)
	reply.Failed = true
	return reply
}

// CardFromEmbed converts a configured embed for the HTTP API.
func CardFromEmbed(e *config.Embed) *types.Card {
	if e == nil {
		return nil
	}
	card := &types.Card{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Color,
		Footer:      e.Footer,
		Image:       e.Image,
		Thumbnail:   e.Thumbnail,
	}
	for _, f := range e.Fields {
		card.Fields = append(card.Fields, types.CardField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return card
}

// Response renders the reply for the HTTP API.
func (rep *Reply) Response() types.ReplyResponse {
	return types.ReplyResponse{
		Kind:         string(rep.Kind),
		TriggerID:    rep.TriggerID,
		Text:         rep.Text,
		HTML:         format.ToHTML(rep.Text),
		Chunks:       rep.Chunks,
		Card:         CardFromEmbed(rep.Card),
		HasMoreSteps: rep.HasMoreSteps,
		Step:         rep.Step,
		TotalSteps:   rep.TotalSteps,
	}
}
