package matcher

import (
	"math"
	"testing"

	"smart-response/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenize(t *testing.T) {
	assert.Nil(t, Tokenize(""))
	assert.Nil(t, Tokenize("   "))
	assert.Equal(t, []string{"hello", "world"}, Tokenize("Hello, World!"))
	assert.Equal(t, []string{"i", "ca", "n't", "log-in"}, Tokenize("I can't log-in"))
	assert.Equal(t, []string{"do", "n't", "stop"}, Tokenize("Don't stop"))
	assert.Equal(t, []string{"they", "'ll", "help"}, Tokenize("they'll help..."))
	assert.Equal(t, []string{"run", "jump"}, StemAll([]string{"running", "jumps"}))
}

func TestStemmedOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"partial", []string{"run", "fast"}, []string{"run"}, 2.0/3.0 + 0.1},
		{"none", []string{"a"}, []string{"b"}, 0},
		{"both empty", nil, nil, 0},
		{"capped", []string{"x", "x"}, []string{"x"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, StemmedOverlap(tt.a, tt.b), 1e-9)
		})
	}
}

func TestJaroWinkler(t *testing.T) {
	assert.Equal(t, 1.0, JaroWinkler("abc", "abc"))
	assert.Equal(t, 0.0, JaroWinkler("", "abc"))
	assert.InDelta(t, 0.961, JaroWinkler("martha", "marhta"), 0.001)
}

func TestDirectMatch(t *testing.T) {
	assert.True(t, DirectMatch("please reset my password now", "reset my password"))
	assert.False(t, DirectMatch("reset password", "reset my password"))
	assert.False(t, DirectMatch("anything", ""))
}

func TestPairCorpus(t *testing.T) {
	got := PairCorpus{}.Measure([]string{"install", "bot"}, []string{"install", "bot", "guide"})
	assert.InDelta(t, 2*(1+math.Log(2.0/3.0)), got, 1e-9)
	assert.Equal(t, 0.0, PairCorpus{}.Measure([]string{"the"}, []string{"the"}))
}

func TestCumulativeCorpusDrifts(t *testing.T) {
	q := []string{"install", "bot"}
	d := []string{"install", "bot", "guide"}

	c := NewCumulativeCorpus(10)
	first := c.Measure(q, d)
	assert.InDelta(t, PairCorpus{}.Measure(q, d), first, 1e-9)

	c.Measure([]string{"other"}, []string{"words"})
	assert.Greater(t, c.Measure(q, d), first)
	assert.Equal(t, 6, c.Len())
}

func TestCumulativeCorpusBounded(t *testing.T) {
	c := NewCumulativeCorpus(4)
	for i := 0; i < 5; i++ {
		c.Measure([]string{"alpha"}, []string{"beta"})
	}
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 2, c.df["alpha"])
}

func TestNewCorpus(t *testing.T) {
	c, err := NewCorpus("", 0)
	require.NoError(t, err)
	assert.IsType(t, PairCorpus{}, c)

	c, err = NewCorpus(config.CorpusModeCumulative, 100)
	require.NoError(t, err)
	assert.IsType(t, &CumulativeCorpus{}, c)

	_, err = NewCorpus("global", 0)
	assert.Error(t, err)
}

func TestScoreRange(t *testing.T) {
	s := NewScorer(nil)
	pairs := [][2]string{
		{"hello there", "hello there"},
		{"how do i install the bot", "install guide"},
		{"", "anything"},
		{"!!!", "???"},
	}
	for _, p := range pairs {
		score := s.Score(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0, p)
		assert.LessOrEqual(t, score, 1.0, p)
	}
}

func testTriggers() []config.Trigger {
	return []config.Trigger{
		{ID: "password", Phrases: []string{"reset my password"}, MatchPercent: 0.9, Type: config.FixedText, Response: "See settings."},
		{ID: "greet-a", Phrases: []string{"hello there"}, MatchPercent: 0.5, Type: config.FixedText, Response: "Hi A"},
		{ID: "greet-b", Phrases: []string{"hello there"}, MatchPercent: 0.5, Type: config.FixedText, Response: "Hi B"},
		{ID: "scoped", Phrases: []string{"deploy the staging build"}, MatchPercent: 0.7, Type: config.Generate, Channels: []string{"200"}},
	}
}

func TestFindBestMatch(t *testing.T) {
	m := New(testTriggers(), NewScorer(PairCorpus{}), zap.NewNop())

	t.Run("direct match floors score at threshold", func(t *testing.T) {
		match := m.FindBestMatch("how do i reset my password")
		require.NotNil(t, match)
		assert.Equal(t, "password", match.Trigger.ID)
		assert.GreaterOrEqual(t, match.Score, 0.9)
	})

	t.Run("ties keep configuration order", func(t *testing.T) {
		match := m.FindBestMatch("hello there")
		require.NotNil(t, match)
		assert.Equal(t, "greet-a", match.Trigger.ID)
	})

	t.Run("no qualifying trigger", func(t *testing.T) {
		assert.Nil(t, m.FindBestMatch("completely unrelated words"))
	})

	t.Run("deterministic", func(t *testing.T) {
		a := m.FindBestMatch("hello there friend")
		b := m.FindBestMatch("hello there friend")
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Equal(t, a.Trigger.ID, b.Trigger.ID)
		assert.Equal(t, a.Score, b.Score)
	})
}

func TestFindBestMatchStrictlyHigherWins(t *testing.T) {
	triggers := []config.Trigger{
		{ID: "short", Phrases: []string{"hello"}, MatchPercent: 0.1, Response: "short"},
		{ID: "long", Phrases: []string{"hello there"}, MatchPercent: 0.1, Response: "long"},
	}
	m := New(triggers, nil, nil)

	match := m.FindBestMatch("hello there")
	require.NotNil(t, match)
	assert.Equal(t, "long", match.Trigger.ID)
}

func TestFindBestMatchInRespectsScoping(t *testing.T) {
	m := New(testTriggers(), nil, zap.NewNop())

	assert.Nil(t, m.FindBestMatchIn("deploy the staging build", "100", ""))
	match := m.FindBestMatchIn("deploy the staging build", "200", "")
	require.NotNil(t, match)
	assert.Equal(t, "scoped", match.Trigger.ID)
}

func TestDirectOverlapImpliesThreshold(t *testing.T) {
	m := New(testTriggers(), nil, nil)
	messages := []string{
		"how do i reset my password",
		"hello there",
		"please deploy the staging build today",
	}
	for _, msg := range messages {
		for _, c := range m.Explain(msg) {
			if c.Direct {
				assert.GreaterOrEqual(t, c.Score, c.Threshold, "%s vs %s", msg, c.Phrase)
				assert.True(t, c.Qualifies)
			}
		}
	}
}
