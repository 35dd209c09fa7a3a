package responder

import (
	"regexp"
	"strings"

	"smart-response/web/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanContent removes mentions of the bot and collapses whitespace. Case is
// preserved; matching lowercases separately.
func CleanContent(content, botID string) string {
	if botID != "" {
		content = strings.NewReplacer("<@"+botID+">", "", "<@!"+botID+">", "").Replace(content)
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(content, " "))
}

// IsAllowedChannel applies the global channel and category allow-lists.
func (r *Responder) IsAllowedChannel(msg types.ChatMessage) bool {
	return r.triggers.AllowsChannel(msg.ChannelID, msg.CategoryID)
}

// IsMentionValid reports whether the message satisfies the mention rule.
func (r *Responder) IsMentionValid(msg types.ChatMessage) bool {
	return !r.triggers.RequireMention || msg.MentionsBot
}

// ShouldHandle gates a message before any matching work is done.
func (r *Responder) ShouldHandle(msg types.ChatMessage) bool {
	if msg.AuthorIsBot || strings.TrimSpace(msg.Content) == "" {
		return false
	}
	return r.IsAllowedChannel(msg) && r.IsMentionValid(msg)
}
