package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	apperrors "smart-response/errors"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ResponseKind is how a matched trigger is answered.
type ResponseKind int

const (
	FixedText ResponseKind = iota
	RichCard
	Generate
)

func (k ResponseKind) String() string {
	switch k {
	case FixedText:
		return "fixed_text"
	case RichCard:
		return "rich_card"
	case Generate:
		return "generate"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// ParseResponseKind accepts both the short (text, embed, smart) and the long
// (fixed_text, rich_card, generate) names, case-insensitively.
func ParseResponseKind(s string) (ResponseKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "fixed_text":
		return FixedText, nil
	case "embed", "rich_card":
		return RichCard, nil
	case "smart", "generate":
		return Generate, nil
	default:
		return 0, apperrors.WrapErrorf(apperrors.ErrConfiguration, "unknown response type %q", s)
	}
}

func (k *ResponseKind) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseResponseKind(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

func (k ResponseKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// EmbedField is one name/value row of a rich card.
type EmbedField struct {
	Name   string `yaml:"name" validate:"required"`
	Value  string `yaml:"value" validate:"required"`
	Inline bool   `yaml:"inline"`
}

// Embed is the payload of a RichCard trigger.
type Embed struct {
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	URL         string       `yaml:"url" validate:"omitempty,url"`
	Color       int          `yaml:"color" validate:"gte=0,lte=16777215"`
	Fields      []EmbedField `yaml:"fields" validate:"dive"`
	Footer      string       `yaml:"footer"`
	Image       string       `yaml:"image" validate:"omitempty,url"`
	Thumbnail   string       `yaml:"thumbnail" validate:"omitempty,url"`
}

// Empty reports whether the card has nothing to render.
func (e *Embed) Empty() bool {
	return e == nil || (e.Title == "" && e.Description == "" && len(e.Fields) == 0)
}

// Trigger is one configured phrase group. Triggers are read-only after load.
type Trigger struct {
	ID           string       `yaml:"id" validate:"required"`
	Phrases      []string     `yaml:"phrases" validate:"min=1,dive,required"`
	MatchPercent float64      `yaml:"match_percent" validate:"gte=0,lte=1"`
	Type         ResponseKind `yaml:"type"`
	Response     string       `yaml:"response"`
	Embed        *Embed       `yaml:"embed"`
	Channels     []string     `yaml:"channels"`
	Categories   []string     `yaml:"categories"`
}

// UnmarshalYAML requires match_percent to be present. A trigger without a
// threshold is a configuration error rather than one that matches anything.
func (t *Trigger) UnmarshalYAML(value *yaml.Node) error {
	type plain Trigger
	if err := value.Decode((*plain)(t)); err != nil {
		return err
	}
	if !hasMappingKey(value, "match_percent") {
		return fmt.Errorf("line %d: trigger %q: match_percent is required", value.Line, t.ID)
	}
	return nil
}

func hasMappingKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1].Tag != "!!null"
		}
	}
	return false
}

// Scoped reports whether the trigger is restricted to particular channels.
func (t *Trigger) Scoped() bool {
	return len(t.Channels) > 0 || len(t.Categories) > 0
}

// AllowsChannel reports whether the trigger may match in the given channel.
func (t *Trigger) AllowsChannel(channelID, categoryID string) bool {
	if !t.Scoped() {
		return true
	}
	return slices.Contains(t.Channels, channelID) || (categoryID != "" && slices.Contains(t.Categories, categoryID))
}

// TriggerSet is the decoded trigger file.
type TriggerSet struct {
	GenerateFallback      bool      `yaml:"generate_fallback"`
	RequireMention        bool      `yaml:"require_mention"`
	WhitelistedChannels   []string  `yaml:"whitelisted_channels"`
	WhitelistedCategories []string  `yaml:"whitelisted_categories"`
	Phrases               []Trigger `yaml:"phrases" validate:"dive"`
}

// AllowsChannel applies the global allow-lists. Empty lists allow everything.
func (s *TriggerSet) AllowsChannel(channelID, categoryID string) bool {
	if len(s.WhitelistedChannels) == 0 && len(s.WhitelistedCategories) == 0 {
		return true
	}
	if slices.Contains(s.WhitelistedChannels, channelID) {
		return true
	}
	return categoryID != "" && slices.Contains(s.WhitelistedCategories, categoryID)
}

var validate = validator.New()

// LoadTriggers reads and validates a trigger file.
func LoadTriggers(path string) (*TriggerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrConfiguration, fmt.Errorf("read triggers %s: %w", path, err))
	}
	return ParseTriggers(data)
}

// ParseTriggers decodes and validates trigger YAML.
func ParseTriggers(data []byte) (*TriggerSet, error) {
	var set TriggerSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, apperrors.Join(apperrors.ErrConfiguration, fmt.Errorf("decode triggers: %w", err))
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks field constraints, unique ids and per-kind payloads.
func (s *TriggerSet) Validate() error {
	if err := validate.Struct(s); err != nil {
		return apperrors.Join(apperrors.ErrConfiguration, err)
	}

	seen := make(map[string]struct{}, len(s.Phrases))
	for i := range s.Phrases {
		t := &s.Phrases[i]
		if _, dup := seen[t.ID]; dup {
			return apperrors.WrapErrorf(apperrors.ErrConfiguration, "duplicate trigger id %q", t.ID)
		}
		seen[t.ID] = struct{}{}

		switch t.Type {
		case FixedText:
			if strings.TrimSpace(t.Response) == "" {
				return apperrors.WrapErrorf(apperrors.ErrConfiguration, "trigger %q: text response is empty", t.ID)
			}
		case RichCard:
			if t.Embed.Empty() {
				return apperrors.WrapErrorf(apperrors.ErrConfiguration, "trigger %q: embed has no title, description or fields", t.ID)
			}
		}
	}
	return nil
}
