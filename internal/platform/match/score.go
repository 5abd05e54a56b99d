// Package match classifies candidate values against permissible-value
// vocabularies and ranks fuzzy corrections for values that do not
// conform. One weighted scorer backs every entry point; the plain
// cutoff matcher is the single-signal special case of it.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Weights blends the four similarity signals into one score. Raw
// sequence similarity alone ranks long controlled-vocabulary phrases
// poorly: word order and acronym matches carry more signal there than
// character overlap, so the interactive ranking blend leans on them.
type Weights struct {
	Sequence    float64
	WordPrefix  float64
	Acronym     float64
	WordOverlap float64
}

// DefaultWeights is the blend used to order options for a human picker.
var DefaultWeights = Weights{Sequence: 0.4, WordPrefix: 0.1, Acronym: 0.2, WordOverlap: 0.3}

// SequenceWeights scores on sequence similarity alone; cutoff matching
// uses it.
var SequenceWeights = Weights{Sequence: 1}

// SequenceSimilarity is the symmetric ratio of matched characters
// between a and b in [0, 1], compared case- and diacritic-insensitively.
func SequenceSimilarity(a, b string) float64 {
	return sequenceRatio([]rune(fold(a)), []rune(fold(b)))
}

// score blends the similarity signals between two folded strings.
func score(cand, opt string, w Weights) float64 {
	s := w.Sequence * sequenceRatio([]rune(cand), []rune(opt))
	if w.WordPrefix == 0 && w.Acronym == 0 && w.WordOverlap == 0 {
		return s
	}
	cw, ow := words(cand), words(opt)
	if w.WordPrefix > 0 {
		s += w.WordPrefix * prefixOverlap(cw, ow)
	}
	if w.Acronym > 0 {
		s += w.Acronym * acronymSimilarity(cand, opt, cw, ow)
	}
	if w.WordOverlap > 0 {
		s += w.WordOverlap * wordOverlap(cw, ow)
	}
	return s
}

// sequenceRatio is twice the number of matched runes over the combined
// length: 1 for identical strings, 0 for disjoint ones.
func sequenceRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchedRunes(a, b)) / float64(total)
}

// matchedRunes counts runes covered by the longest common block and,
// recursively, the blocks to its left and right.
func matchedRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size + matchedRunes(a[:ai], b[:bi]) + matchedRunes(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the longest run of runes common to a and b.
// Ties go to the earliest position in a, then in b, which keeps the
// ratio deterministic.
func longestCommonBlock(a, b []rune) (int, int, int) {
	positions := make(map[rune][]int, len(b))
	for j, r := range b {
		positions[r] = append(positions[r], j)
	}
	bestI, bestJ, bestSize := 0, 0, 0
	lengths := make(map[int]int)
	for i, r := range a {
		next := make(map[int]int, len(positions[r]))
		for _, j := range positions[r] {
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return bestI, bestJ, bestSize
}

// prefixOverlap is the fraction of words, measured against the longer
// word list, that have a prefix counterpart in the other list.
func prefixOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := 0
	for _, w := range a {
		for _, v := range b {
			if strings.HasPrefix(w, v) || strings.HasPrefix(v, w) {
				matched++
				break
			}
		}
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(matched) / float64(longer)
}

// acronymSimilarity compares each string against the other's acronym
// (and acronym against acronym) and keeps the best ratio, so "mri"
// still lines up with "magnetic resonance imaging".
func acronymSimilarity(cand, opt string, cw, ow []string) float64 {
	if len(cw) == 0 || len(ow) == 0 {
		return 0
	}
	ca, oa := acronym(cw), acronym(ow)
	best := sequenceRatio([]rune(cand), []rune(oa))
	if s := sequenceRatio([]rune(ca), []rune(opt)); s > best {
		best = s
	}
	if s := sequenceRatio([]rune(ca), []rune(oa)); s > best {
		best = s
	}
	return best
}

// wordOverlap is the Jaccard ratio of the two word sets.
func wordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	as := make(map[string]struct{}, len(a))
	for _, w := range a {
		as[w] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, w := range b {
		bs[w] = struct{}{}
	}
	shared := 0
	for w := range as {
		if _, ok := bs[w]; ok {
			shared++
		}
	}
	union := len(as) + len(bs) - shared
	return float64(shared) / float64(union)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func acronym(ws []string) string {
	var b strings.Builder
	for _, w := range ws {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
	}
	return b.String()
}

// fold prepares a string for similarity comparison: trimmed,
// lower-cased, diacritics stripped.
func fold(s string) string {
	return stripDiacritics(strings.ToLower(strings.TrimSpace(s)))
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
