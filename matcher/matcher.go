package matcher

import (
	"smart-response/config"

	"go.uber.org/zap"
)

// Match is the winning trigger of a match pass.
type Match struct {
	Trigger *config.Trigger
	Phrase  string
	Score   float64
}

// Candidate is one scored (trigger, phrase) pair. Candidates only live for the
// duration of a pass.
type Candidate struct {
	TriggerID string
	Phrase    string
	Threshold float64
	Breakdown
	Score     float64
	Qualifies bool
}

type compiledPhrase struct {
	text string
	analyzed
}

type compiledTrigger struct {
	trigger *config.Trigger
	phrases []compiledPhrase
}

// Matcher selects the best trigger for a message. Triggers are analyzed once
// at construction and never modified.
type Matcher struct {
	triggers []compiledTrigger
	scorer   *Scorer
	logger   *zap.Logger
}

func New(triggers []config.Trigger, scorer *Scorer, logger *zap.Logger) *Matcher {
	if scorer == nil {
		scorer = NewScorer(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	compiled := make([]compiledTrigger, 0, len(triggers))
	for i := range triggers {
		t := &triggers[i]
		ct := compiledTrigger{trigger: t, phrases: make([]compiledPhrase, 0, len(t.Phrases))}
		for _, p := range t.Phrases {
			ct.phrases = append(ct.phrases, compiledPhrase{text: p, analyzed: analyze(p)})
		}
		compiled = append(compiled, ct)
	}

	return &Matcher{triggers: compiled, scorer: scorer, logger: logger}
}

// FindBestMatch scores the message against every trigger regardless of
// channel scoping. It returns nil when nothing qualifies.
func (m *Matcher) FindBestMatch(message string) *Match {
	return m.find(message, func(*config.Trigger) bool { return true })
}

// FindBestMatchIn only considers triggers allowed in the given channel.
func (m *Matcher) FindBestMatchIn(message, channelID, categoryID string) *Match {
	return m.find(message, func(t *config.Trigger) bool { return t.AllowsChannel(channelID, categoryID) })
}

// A phrase qualifies when its score reaches its trigger's threshold. The
// strictly highest qualifying score wins, so ties keep the earliest phrase in
// configuration order. A direct match floors the score but does not stop the
// scan.
func (m *Matcher) find(message string, allowed func(*config.Trigger) bool) *Match {
	msg := analyze(message)

	var best *Match
	highest := 0.0
	for _, ct := range m.triggers {
		if !allowed(ct.trigger) {
			continue
		}
		for _, p := range ct.phrases {
			c := m.candidate(msg, ct.trigger, p)
			if c.Qualifies && c.Score > highest {
				highest = c.Score
				best = &Match{Trigger: ct.trigger, Phrase: p.text, Score: c.Score}
			}
		}
	}

	if best != nil {
		m.logger.Debug("Trigger matched",
			zap.String("trigger_id", best.Trigger.ID),
			zap.String("phrase", best.Phrase),
			zap.Float64("score", best.Score))
	}
	return best
}

// Explain returns every candidate of a pass in configuration order.
func (m *Matcher) Explain(message string) []Candidate {
	msg := analyze(message)
	var out []Candidate
	for _, ct := range m.triggers {
		for _, p := range ct.phrases {
			out = append(out, m.candidate(msg, ct.trigger, p))
		}
	}
	return out
}

func (m *Matcher) candidate(msg analyzed, t *config.Trigger, p compiledPhrase) Candidate {
	b := m.scorer.breakdown(msg, p.analyzed)
	score := b.Total
	if b.Direct {
		score = max(score, t.MatchPercent)
	}
	return Candidate{
		TriggerID: t.ID,
		Phrase:    p.text,
		Threshold: t.MatchPercent,
		Breakdown: b,
		Score:     score,
		Qualifies: score >= t.MatchPercent,
	}
}

// Len returns the number of triggers.
func (m *Matcher) Len() int { return len(m.triggers) }
