package match

import (
	"sort"
	"strings"

	"github.com/remap/remap/internal/platform/mdf"
)

// DefaultCutoff is the minimum sequence score a fuzzy match must reach
// before it is offered as a correction.
const DefaultCutoff = 0.6

// Matcher classifies values against vocabularies. The zero cutoff is
// never used directly; construct with New.
type Matcher struct {
	cutoff float64
}

// Option adjusts a Matcher.
type Option func(*Matcher)

// WithCutoff overrides the fuzzy-match acceptance threshold.
func WithCutoff(c float64) Option {
	return func(m *Matcher) { m.cutoff = c }
}

// New returns a Matcher with the default cutoff unless overridden.
func New(opts ...Option) *Matcher {
	m := &Matcher{cutoff: DefaultCutoff}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cutoff returns the configured acceptance threshold.
func (m *Matcher) Cutoff() float64 { return m.cutoff }

// ScoredValue pairs a vocabulary entry with its ranking score.
type ScoredValue struct {
	mdf.PermissibleValue
	Score float64
}

// IsValid reports whether value conforms to the vocabulary. Matching is
// case-insensitive. Empty and whitespace-only values are always valid:
// absence is a required-field concern, not a standardization error.
// Semicolon-delimited cells validate per trimmed token, every non-empty
// token independently.
func (m *Matcher) IsValid(value string, vocab []mdf.PermissibleValue) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	if strings.Contains(trimmed, ";") {
		for _, tok := range strings.Split(trimmed, ";") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if !validToken(tok, vocab) {
				return false
			}
		}
		return true
	}
	return validToken(trimmed, vocab)
}

// ClosestMatch returns the vocabulary entry most similar to value under
// sequence scoring, provided the score clears the cutoff. A score of
// exactly the cutoff qualifies. Ties go to the earlier-listed entry.
func (m *Matcher) ClosestMatch(value string, vocab []mdf.PermissibleValue) (mdf.PermissibleValue, bool) {
	cand := fold(value)
	if cand == "" || len(vocab) == 0 {
		return mdf.PermissibleValue{}, false
	}
	var best mdf.PermissibleValue
	bestScore := -1.0
	for _, pv := range vocab {
		if s := score(cand, fold(pv.Value), SequenceWeights); s > bestScore {
			best, bestScore = pv, s
		}
	}
	if bestScore < m.cutoff {
		return mdf.PermissibleValue{}, false
	}
	return best, true
}

// PrioritizedOptions scores every vocabulary entry against value and
// returns all of them, best first, so a human picker sees the likely
// corrections at the top with the full vocabulary still available below.
// Equal scores keep vocabulary order.
func (m *Matcher) PrioritizedOptions(value string, vocab []mdf.PermissibleValue) []ScoredValue {
	cand := fold(value)
	out := make([]ScoredValue, len(vocab))
	for i, pv := range vocab {
		out[i] = ScoredValue{
			PermissibleValue: pv,
			Score:            score(cand, fold(pv.Value), DefaultWeights),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// CanonicalCase returns the canonical spelling for a value that is
// valid only up to letter case, surrounding space, or token spacing in
// a semicolon list. It returns false when the value is already
// canonical, or not valid at all. Callers substitute the fix silently
// and log it for audit instead of reporting an error.
func (m *Matcher) CanonicalCase(value string, vocab []mdf.PermissibleValue) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || !m.IsValid(trimmed, vocab) {
		return "", false
	}
	var canon []string
	for _, tok := range strings.Split(trimmed, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		canon = append(canon, canonicalToken(tok, vocab))
	}
	fixed := strings.Join(canon, ";")
	if fixed == value {
		return "", false
	}
	return fixed, true
}

func validToken(token string, vocab []mdf.PermissibleValue) bool {
	for _, pv := range vocab {
		if strings.EqualFold(token, pv.Value) {
			return true
		}
	}
	return false
}

func canonicalToken(token string, vocab []mdf.PermissibleValue) string {
	for _, pv := range vocab {
		if strings.EqualFold(token, pv.Value) {
			return pv.Value
		}
	}
	return token
}
