package config

import (
	"testing"

	apperrors "smart-response/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTriggers = `
generate_fallback: true
require_mention: false
whitelisted_channels: ["100"]
whitelisted_categories: ["900"]
phrases:
  - id: greeting
    phrases: ["hello there", "hi bot"]
    match_percent: 0.7
    type: text
    response: "Hello!"
  - id: rules
    phrases: ["server rules"]
    match_percent: 0.8
    type: EMBED
    embed:
      title: Rules
      description: Be nice.
      color: 3447003
      fields:
        - name: One
          value: No spam
  - id: setup
    phrases: ["how do i install"]
    match_percent: 0.6
    type: generate
    channels: ["200"]
`

func TestParseTriggers(t *testing.T) {
	set, err := ParseTriggers([]byte(sampleTriggers))
	require.NoError(t, err)

	require.Len(t, set.Phrases, 3)
	assert.True(t, set.GenerateFallback)
	assert.Equal(t, FixedText, set.Phrases[0].Type)
	assert.Equal(t, RichCard, set.Phrases[1].Type)
	assert.Equal(t, Generate, set.Phrases[2].Type)
	assert.Equal(t, "Rules", set.Phrases[1].Embed.Title)
	assert.Equal(t, "generate", set.Phrases[2].Type.String())
}

func TestParseTriggersRejects(t *testing.T) {
	tests := map[string]string{
		"unknown type":      "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 0.5\n    type: video\n    response: y\n",
		"no phrases":        "phrases:\n  - id: a\n    phrases: []\n    match_percent: 0.5\n    response: y\n",
		"threshold range":   "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 1.5\n    response: y\n",
		"missing threshold": "phrases:\n  - id: a\n    phrases: [x]\n    response: y\n",
		"null threshold":    "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: ~\n    response: y\n",
		"empty text":        "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 0.5\n    type: text\n",
		"empty embed":       "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 0.5\n    type: embed\n",
		"duplicate ids":     "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 0.5\n    response: y\n  - id: a\n    phrases: [z]\n    match_percent: 0.5\n    response: y\n",
		"missing id":        "phrases:\n  - phrases: [x]\n    match_percent: 0.5\n    response: y\n",
		"malformed yaml":    "phrases: [",
		"bad embed url":     "phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 0.5\n    type: embed\n    embed:\n      title: t\n      url: not a url\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTriggers([]byte(body))
			assert.True(t, apperrors.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestParseTriggersZeroThreshold(t *testing.T) {
	set, err := ParseTriggers([]byte("phrases:\n  - id: a\n    phrases: [x]\n    match_percent: 0\n    response: y\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Phrases[0].MatchPercent)
}

func TestAllowsChannel(t *testing.T) {
	set := &TriggerSet{}
	assert.True(t, set.AllowsChannel("any", ""))

	set.WhitelistedChannels = []string{"100"}
	set.WhitelistedCategories = []string{"900"}
	assert.True(t, set.AllowsChannel("100", ""))
	assert.True(t, set.AllowsChannel("555", "900"))
	assert.False(t, set.AllowsChannel("555", "901"))
	assert.False(t, set.AllowsChannel("555", ""))

	trig := Trigger{Channels: []string{"200"}}
	assert.True(t, trig.AllowsChannel("200", ""))
	assert.False(t, trig.AllowsChannel("201", "900"))
	assert.True(t, (&Trigger{}).AllowsChannel("x", ""))
}

func TestLoadTriggersMissingFile(t *testing.T) {
	_, err := LoadTriggers("/nonexistent/triggers.yml")
	assert.True(t, apperrors.IsConfiguration(err))
}
