package discord

import (
	"smart-response/config"

	"github.com/bwmarrin/discordgo"
)

// Custom ids of the bot's interactive components.
const (
	NextStepID      = "next_step"
	AskQuestionID   = "ask_question"
	QuestionModalID = "question_modal"
	QuestionInputID = "question_input"
)

// Question modal bounds.
const (
	QuestionMinLength = 10
	QuestionMaxLength = 1000
)

// Reactions marking the progress of a message.
const (
	ReactionWorking = "⏳"
	ReactionDone    = "✅"
	ReactionFailed  = "❌"
)

// ButtonRow builds the row attached to the last chunk of a reply. The next
// step button only appears while a walkthrough has steps left.
func ButtonRow(hasNextSteps bool) discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	if hasNextSteps {
		buttons = append(buttons, discordgo.Button{
			CustomID: NextStepID,
			Label:    "Show Next Step",
			Style:    discordgo.PrimaryButton,
			Emoji:    &discordgo.ComponentEmoji{Name: "➡️"},
		})
	}
	buttons = append(buttons, discordgo.Button{
		CustomID: AskQuestionID,
		Label:    "Ask Another Question",
		Style:    discordgo.SecondaryButton,
		Emoji:    &discordgo.ComponentEmoji{Name: "❓"},
	})
	return discordgo.ActionsRow{Components: buttons}
}

// QuestionModal is shown when a user asks another question.
func QuestionModal(botName string) *discordgo.InteractionResponseData {
	title := "Ask a Question"
	if botName != "" {
		title = "Ask " + botName + " a Question"
	}
	return &discordgo.InteractionResponseData{
		CustomID: QuestionModalID,
		Title:    title,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    QuestionInputID,
						Label:       "What would you like to know?",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "Type your question here...",
						Required:    true,
						MinLength:   QuestionMinLength,
						MaxLength:   QuestionMaxLength,
					},
				},
			},
		},
	}
}

// modalValue finds a text input's value in submitted modal components.
func modalValue(components []discordgo.MessageComponent, customID string) string {
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			if s := modalValue(v.Components, customID); s != "" {
				return s
			}
		case discordgo.ActionsRow:
			if s := modalValue(v.Components, customID); s != "" {
				return s
			}
		case *discordgo.TextInput:
			if v.CustomID == customID {
				return v.Value
			}
		case discordgo.TextInput:
			if v.CustomID == customID {
				return v.Value
			}
		}
	}
	return ""
}

// MessageEmbed converts a configured embed for sending.
func MessageEmbed(e *config.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if e.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: e.Image}
	}
	if e.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	return embed
}
