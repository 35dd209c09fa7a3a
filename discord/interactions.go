package discord

import (
	"context"
	"strings"

	"smart-response/responder"
	"smart-response/session"
	"smart-response/web/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	nextStepErrorText    = "Sorry, I encountered an error processing the next step."
	modalErrorText       = "Sorry, I encountered an error opening the question form."
	questionErrorText    = "Sorry, I encountered an error processing your question."
	unknownComponentText = "Unknown or expired component."
	unidentifiedUserText = "Could not identify user."
)

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, handleTimeout)
	defer cancel()
	b.handleInteraction(ctx, i.Interaction)
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	user := interactionUser(i)
	if user == nil {
		b.respondEphemeral(i, unidentifiedUserText)
		return
	}

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case NextStepID:
			b.handleNextStep(ctx, i, user)
		case AskQuestionID:
			_, name := b.user()
			err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseModal,
				Data: QuestionModal(name),
			})
			if err != nil {
				b.logger.Error("Failed to show question modal", zap.Error(err))
				b.respondEphemeral(i, modalErrorText)
			}
		default:
			b.respondEphemeral(i, unknownComponentText)
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		if data.CustomID != QuestionModalID {
			return
		}
		b.handleQuestion(ctx, i, user, modalValue(data.Components, QuestionInputID))
	}
}

func (b *Bot) handleNextStep(ctx context.Context, i *discordgo.Interaction, user *discordgo.User) {
	if err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		b.logger.Warn("Failed to acknowledge interaction", zap.Error(err))
		return
	}

	reply := b.responder.Advance(ctx, session.Key{ChannelID: i.ChannelID, UserID: user.ID})
	if err := b.deliver(reply, b.followUp(i)); err != nil {
		b.logger.Error("Failed to send next step", zap.String("user_id", user.ID), zap.Error(err))
		b.followUpEphemeral(i, nextStepErrorText)
	}
}

// handleQuestion runs a modal question through the same pipeline as a
// message. Asking through the modal counts as addressing the bot.
func (b *Bot) handleQuestion(ctx context.Context, i *discordgo.Interaction, user *discordgo.User, question string) {
	if err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.logger.Warn("Failed to acknowledge question", zap.Error(err))
		return
	}

	msg := types.ChatMessage{
		ID:          i.ID,
		AuthorID:    user.ID,
		AuthorIsBot: user.Bot,
		ChannelID:   i.ChannelID,
		CategoryID:  b.categoryOf(i.ChannelID),
		Content:     strings.TrimSpace(question),
		MentionsBot: true,
	}
	reply := b.responder.Process(ctx, msg)
	if reply == nil {
		b.followUpText(i, responder.QuestionFailureText)
		return
	}
	if err := b.deliver(reply, b.followUp(i)); err != nil {
		b.logger.Error("Failed to answer question", zap.String("user_id", user.ID), zap.Error(err))
		b.followUpEphemeral(i, questionErrorText)
	}
}

func (b *Bot) followUp(i *discordgo.Interaction) sendFunc {
	return func(content string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
		params := &discordgo.WebhookParams{Content: content, Components: components}
		if embed != nil {
			params.Embeds = []*discordgo.MessageEmbed{embed}
		}
		_, err := b.api.FollowupMessageCreate(i, true, params)
		return err
	}
}

func (b *Bot) followUpText(i *discordgo.Interaction, content string) {
	if _, err := b.api.FollowupMessageCreate(i, true, &discordgo.WebhookParams{Content: content}); err != nil {
		b.logger.Warn("Failed to send follow-up", zap.Error(err))
	}
}

func (b *Bot) followUpEphemeral(i *discordgo.Interaction, content string) {
	params := &discordgo.WebhookParams{Content: content, Flags: discordgo.MessageFlagsEphemeral}
	if _, err := b.api.FollowupMessageCreate(i, true, params); err != nil {
		b.logger.Warn("Failed to send follow-up", zap.Error(err))
	}
}

func (b *Bot) respondEphemeral(i *discordgo.Interaction, content string) {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("Failed to respond to interaction", zap.Error(err))
	}
}
