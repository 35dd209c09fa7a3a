package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smart-response/responder"
	"smart-response/session"
	"smart-response/web/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const handleTimeout = 2 * time.Minute

// Responder is the part of the responder the bot drives.
type Responder interface {
	ShouldHandle(msg types.ChatMessage) bool
	Process(ctx context.Context, msg types.ChatMessage) *responder.Reply
	Advance(ctx context.Context, key session.Key) *responder.Reply
	SetBotID(id string)
}

// api is the subset of *discordgo.Session the bot calls.
type api interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot delivers responder replies on Discord.
type Bot struct {
	token     string
	responder Responder
	logger    *zap.Logger

	session  *discordgo.Session
	api      api
	parentOf func(channelID string) string

	mu      sync.RWMutex
	botID   string
	botName string

	ctx    context.Context
	cancel context.CancelFunc
}

func New(token string, r Responder, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		token:     token,
		responder: r,
		logger:    logger.With(zap.String("component", "discord")),
		ctx:       context.Background(),
	}
}

// Start opens the gateway connection and registers the handlers.
func (b *Bot) Start(ctx context.Context) error {
	if b.token == "" {
		return fmt.Errorf("discord: bot token is required")
	}
	b.ctx, b.cancel = context.WithCancel(ctx)

	s, err := discordgo.New("Bot " + b.token)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onInteractionCreate)

	b.session = s
	b.api = s
	b.parentOf = b.sessionParent

	if err := s.Open(); err != nil {
		return fmt.Errorf("discord: opening gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	if b.session == nil {
		return nil
	}
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("discord: closing session: %w", err)
	}
	b.logger.Info("Discord bot disconnected")
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.setUser(r.User)
	b.logger.Info("Discord bot connected",
		zap.String("username", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Int("guilds", len(r.Guilds)))
}

func (b *Bot) setUser(u *discordgo.User) {
	if u == nil {
		return
	}
	b.mu.Lock()
	b.botID = u.ID
	b.botName = u.Username
	b.mu.Unlock()
	b.responder.SetBotID(u.ID)
}

func (b *Bot) user() (id, name string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.botID, b.botName
}

// sessionParent returns the category of a channel, or "" when unknown.
func (b *Bot) sessionParent(channelID string) string {
	ch, err := b.session.State.Channel(channelID)
	if err != nil {
		ch, err = b.session.Channel(channelID)
		if err != nil {
			b.logger.Debug("Failed to resolve channel", zap.String("channel_id", channelID), zap.Error(err))
			return ""
		}
	}
	return ch.ParentID
}

func (b *Bot) categoryOf(channelID string) string {
	if b.parentOf == nil {
		return ""
	}
	return b.parentOf(channelID)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, handleTimeout)
	defer cancel()
	b.handleMessage(ctx, m.Message)
}

// toChatMessage converts a Discord message for the responder.
func toChatMessage(m *discordgo.Message, botID, categoryID string) types.ChatMessage {
	msg := types.ChatMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		CategoryID: categoryID,
		Content:    m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
	}
	for _, u := range m.Mentions {
		if u != nil && botID != "" && u.ID == botID {
			msg.MentionsBot = true
			break
		}
	}
	return msg
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil {
		return
	}
	botID, _ := b.user()
	if m.Author.ID == botID {
		return
	}

	msg := toChatMessage(m, botID, b.categoryOf(m.ChannelID))
	if !b.responder.ShouldHandle(msg) {
		return
	}

	b.react(m.ChannelID, m.ID, ReactionWorking)
	reply := b.responder.Process(ctx, msg)
	if err := b.api.MessageReactionRemove(m.ChannelID, m.ID, ReactionWorking, "@me"); err != nil {
		b.logger.Warn("Failed to remove reaction", zap.String("message_id", m.ID), zap.Error(err))
	}
	if reply == nil {
		return
	}

	ref := &discordgo.MessageReference{MessageID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID}
	err := b.deliver(reply, func(content string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
		send := &discordgo.MessageSend{Content: content, Components: components, Reference: ref}
		if embed != nil {
			send.Embeds = []*discordgo.MessageEmbed{embed}
		}
		_, err := b.api.ChannelMessageSendComplex(m.ChannelID, send)
		return err
	})
	if err != nil {
		b.logger.Error("Failed to send reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}

	if err != nil || reply.Failed {
		b.react(m.ChannelID, m.ID, ReactionFailed)
		return
	}
	b.react(m.ChannelID, m.ID, ReactionDone)
}

func (b *Bot) react(channelID, messageID, emoji string) {
	if err := b.api.MessageReactionAdd(channelID, messageID, emoji); err != nil {
		b.logger.Warn("Failed to add reaction",
			zap.String("message_id", messageID),
			zap.String("emoji", emoji),
			zap.Error(err))
	}
}

type sendFunc func(content string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error

// deliver sends a reply chunk by chunk. The button row goes on the last
// message only.
func (b *Bot) deliver(reply *responder.Reply, send sendFunc) error {
	if reply.Kind == responder.ReplyCard {
		return send("", MessageEmbed(reply.Card), []discordgo.MessageComponent{ButtonRow(false)})
	}
	for i, chunk := range reply.Chunks {
		var components []discordgo.MessageComponent
		if i == len(reply.Chunks)-1 {
			components = []discordgo.MessageComponent{ButtonRow(reply.HasMoreSteps)}
		}
		if err := send(chunk, nil, components); err != nil {
			return err
		}
	}
	return nil
}
