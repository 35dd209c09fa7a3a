package discord

import (
	"context"
	"errors"
	"sync"
	"testing"

	"smart-response/config"
	"smart-response/responder"
	"smart-response/session"
	"smart-response/web/types"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMessage struct {
	channelID string
	send      *discordgo.MessageSend
}

type reaction struct {
	op    string
	emoji string
}

type fakeAPI struct {
	mu        sync.Mutex
	sent      []sentMessage
	reactions []reaction
	responses []*discordgo.InteractionResponse
	followUps []*discordgo.WebhookParams
	sendErr   error
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, send: data})
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeAPI) MessageReactionAdd(_, _, emoji string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, reaction{op: "add", emoji: emoji})
	return nil
}

func (f *fakeAPI) MessageReactionRemove(_, _, emoji, _ string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, reaction{op: "remove", emoji: emoji})
	return nil
}

func (f *fakeAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followUps = append(f.followUps, data)
	return &discordgo.Message{}, nil
}

type fakeResponder struct {
	handle   bool
	reply    *responder.Reply
	advance  *responder.Reply
	messages []types.ChatMessage
	keys     []session.Key
	botID    string
}

func (f *fakeResponder) ShouldHandle(types.ChatMessage) bool { return f.handle }

func (f *fakeResponder) Process(_ context.Context, msg types.ChatMessage) *responder.Reply {
	f.messages = append(f.messages, msg)
	return f.reply
}

func (f *fakeResponder) Advance(_ context.Context, key session.Key) *responder.Reply {
	f.keys = append(f.keys, key)
	return f.advance
}

func (f *fakeResponder) SetBotID(id string) { f.botID = id }

func newTestBot(r *fakeResponder) (*Bot, *fakeAPI) {
	fake := &fakeAPI{}
	b := New("token", r, zap.NewNop())
	b.api = fake
	b.parentOf = func(string) string { return "cat-1" }
	b.setUser(&discordgo.User{ID: "bot", Username: "Helper"})
	return b, fake
}

func userMessage(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Content:   content,
		Author:    &discordgo.User{ID: "u1"},
		Mentions:  []*discordgo.User{{ID: "bot"}},
	}
}

func buttonIDs(t *testing.T, components []discordgo.MessageComponent) []string {
	t.Helper()
	require.Len(t, components, 1)
	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	var ids []string
	for _, c := range row.Components {
		ids = append(ids, c.(discordgo.Button).CustomID)
	}
	return ids
}

func TestHandleMessageSendsChunksWithButtonsOnLast(t *testing.T) {
	r := &fakeResponder{handle: true, reply: &responder.Reply{
		Kind:         responder.ReplyGenerated,
		Chunks:       []string{"part one", "part two"},
		HasMoreSteps: true,
	}}
	b, fake := newTestBot(r)

	b.handleMessage(context.Background(), userMessage("<@bot> how do I install?"))

	require.Len(t, r.messages, 1)
	assert.True(t, r.messages[0].MentionsBot)
	assert.Equal(t, "cat-1", r.messages[0].CategoryID)
	assert.Equal(t, "bot", r.botID)

	require.Len(t, fake.sent, 2)
	assert.Equal(t, "part one", fake.sent[0].send.Content)
	assert.Empty(t, fake.sent[0].send.Components)
	assert.Equal(t, "m1", fake.sent[0].send.Reference.MessageID)
	assert.Equal(t, []string{NextStepID, AskQuestionID}, buttonIDs(t, fake.sent[1].send.Components))

	assert.Equal(t, []reaction{
		{op: "add", emoji: ReactionWorking},
		{op: "remove", emoji: ReactionWorking},
		{op: "add", emoji: ReactionDone},
	}, fake.reactions)
}

func TestHandleMessageCard(t *testing.T) {
	r := &fakeResponder{handle: true, reply: &responder.Reply{
		Kind: responder.ReplyCard,
		Card: &config.Embed{Title: "Rules", Footer: "mods"},
	}}
	b, fake := newTestBot(r)

	b.handleMessage(context.Background(), userMessage("rules"))

	require.Len(t, fake.sent, 1)
	require.Len(t, fake.sent[0].send.Embeds, 1)
	assert.Equal(t, "Rules", fake.sent[0].send.Embeds[0].Title)
	assert.Equal(t, "mods", fake.sent[0].send.Embeds[0].Footer.Text)
	assert.Equal(t, []string{AskQuestionID}, buttonIDs(t, fake.sent[0].send.Components))
}

func TestHandleMessageIgnored(t *testing.T) {
	r := &fakeResponder{handle: false}
	b, fake := newTestBot(r)

	b.handleMessage(context.Background(), userMessage("hello"))
	assert.Empty(t, r.messages)
	assert.Empty(t, fake.reactions)

	own := userMessage("hello")
	own.Author = &discordgo.User{ID: "bot"}
	r.handle = true
	b.handleMessage(context.Background(), own)
	assert.Empty(t, r.messages)
}

func TestHandleMessageNoReplyOnlyClearsReaction(t *testing.T) {
	r := &fakeResponder{handle: true}
	b, fake := newTestBot(r)

	b.handleMessage(context.Background(), userMessage("hello"))
	assert.Empty(t, fake.sent)
	assert.Equal(t, []reaction{
		{op: "add", emoji: ReactionWorking},
		{op: "remove", emoji: ReactionWorking},
	}, fake.reactions)
}

func TestHandleMessageFailureReaction(t *testing.T) {
	r := &fakeResponder{handle: true, reply: &responder.Reply{
		Kind:   responder.ReplyNotice,
		Chunks: []string{responder.ApologyText},
		Failed: true,
	}}
	b, fake := newTestBot(r)
	b.handleMessage(context.Background(), userMessage("hello"))
	assert.Equal(t, ReactionFailed, fake.reactions[len(fake.reactions)-1].emoji)

	r.reply.Failed = false
	fake.sendErr = errors.New("forbidden")
	fake.reactions = nil
	b.handleMessage(context.Background(), userMessage("hello"))
	assert.Equal(t, ReactionFailed, fake.reactions[len(fake.reactions)-1].emoji)
}

func componentInteraction(customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func TestNextStepButton(t *testing.T) {
	r := &fakeResponder{advance: &responder.Reply{
		Kind:   responder.ReplyStep,
		Chunks: []string{"step two"},
	}}
	b, fake := newTestBot(r)

	b.handleInteraction(context.Background(), componentInteraction(NextStepID))

	require.Equal(t, []session.Key{{ChannelID: "c1", UserID: "u1"}}, r.keys)
	require.Len(t, fake.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, fake.responses[0].Type)
	require.Len(t, fake.followUps, 1)
	assert.Equal(t, "step two", fake.followUps[0].Content)
	assert.Equal(t, []string{AskQuestionID}, buttonIDs(t, fake.followUps[0].Components))
}

func TestAskQuestionShowsModal(t *testing.T) {
	b, fake := newTestBot(&fakeResponder{})

	b.handleInteraction(context.Background(), componentInteraction(AskQuestionID))

	require.Len(t, fake.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseModal, fake.responses[0].Type)
	assert.Equal(t, QuestionModalID, fake.responses[0].Data.CustomID)
	assert.Equal(t, "Ask Helper a Question", fake.responses[0].Data.Title)
}

func TestUnknownComponent(t *testing.T) {
	b, fake := newTestBot(&fakeResponder{})
	b.handleInteraction(context.Background(), componentInteraction("mystery"))

	require.Len(t, fake.responses, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, fake.responses[0].Data.Flags)
}

func modalInteraction(value string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i2",
		Type:      discordgo.InteractionModalSubmit,
		ChannelID: "c1",
		User:      &discordgo.User{ID: "u1"},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: QuestionModalID,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: QuestionInputID, Value: value},
				}},
			},
		},
	}
}

func TestQuestionModalSubmit(t *testing.T) {
	r := &fakeResponder{reply: &responder.Reply{Kind: responder.ReplyText, Chunks: []string{"answer"}}}
	b, fake := newTestBot(r)

	b.handleInteraction(context.Background(), modalInteraction("  how do I reset my password?  "))

	require.Len(t, r.messages, 1)
	assert.Equal(t, "how do I reset my password?", r.messages[0].Content)
	assert.True(t, r.messages[0].MentionsBot)
	assert.Equal(t, "u1", r.messages[0].AuthorID)
	require.Len(t, fake.followUps, 1)
	assert.Equal(t, "answer", fake.followUps[0].Content)
}

func TestQuestionModalUnanswered(t *testing.T) {
	b, fake := newTestBot(&fakeResponder{})

	b.handleInteraction(context.Background(), modalInteraction("something nobody knows"))

	require.Len(t, fake.followUps, 1)
	assert.Equal(t, responder.QuestionFailureText, fake.followUps[0].Content)
}

func TestQuestionModalBounds(t *testing.T) {
	data := QuestionModal("")
	assert.Equal(t, "Ask a Question", data.Title)
	row := data.Components[0].(discordgo.ActionsRow)
	input := row.Components[0].(discordgo.TextInput)
	assert.Equal(t, QuestionMinLength, input.MinLength)
	assert.Equal(t, QuestionMaxLength, input.MaxLength)
	assert.True(t, input.Required)
}

func TestMessageEmbed(t *testing.T) {
	assert.Nil(t, MessageEmbed(nil))
	e := MessageEmbed(&config.Embed{
		Title:  "T",
		Color:  255,
		Fields: []config.EmbedField{{Name: "a", Value: "b", Inline: true}},
		Image:  "https://example.com/i.png",
	})
	assert.Equal(t, 255, e.Color)
	require.Len(t, e.Fields, 1)
	assert.True(t, e.Fields[0].Inline)
	assert.Equal(t, "https://example.com/i.png", e.Image.URL)
	assert.Nil(t, e.Footer)
}
