package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tv-cli/tv/internal/util"
)

const (
	bonusContiguous  = 8.0
	bonusStartOfWord = 12.0
	penaltySkip      = 1.0
)

// fuzzyScore finds a subsequence match of query in text, the same
// smart-case convention as peco's Fuzzy filter (explicit
// case-sensitive search the moment the query contains an uppercase
// letter, case-insensitive otherwise), then layers in a score: a bonus
// for runs that continue directly from the previous match, a bonus for
// matches that land on a word boundary, and a penalty proportional to
// how many characters were skipped over to find the match. Spans are
// returned as [start, end) codepoint offsets, matching Matched.Indices'
// documented contract, since text may contain multi-byte runes.
func fuzzyScore(query, text string) (score float64, spans [][]int, ok bool) {
	if query == "" {
		return 0, nil, true
	}

	hasUpper := util.ContainsUpper(query)
	full, off := text, 0 // off is the byte offset of text within full
	runeBase := 0
	remaining := query
	var matchSpans [][]int

	for len(remaining) > 0 {
		r, n := utf8.DecodeRuneInString(remaining)
		if r == utf8.RuneError {
			return 0, nil, false
		}
		remaining = remaining[n:]

		var i int
		if hasUpper {
			i = strings.IndexRune(text, r)
		} else {
			i = util.CaseInsensitiveIndex(text, r)
		}
		if i == -1 {
			return 0, nil, false
		}

		skip := utf8.RuneCountInString(text[:i])
		matchLen := runeLen(text, i)
		start := runeBase + skip

		if isWordBoundary(full, off+i) {
			score += bonusStartOfWord
		}
		if skip == 0 && runeBase > 0 {
			score += bonusContiguous
		}

		score -= float64(skip) * penaltySkip

		matchSpans = append(matchSpans, []int{start, start + 1})
		text = text[i+matchLen:]
		off += i + matchLen
		runeBase = start + 1
	}

	return score, matchSpans, true
}

// runeLen returns the byte length of the rune starting at byte offset i.
func runeLen(s string, i int) int {
	_, n := utf8.DecodeRuneInString(s[i:])
	return n
}

// isWordBoundary reports whether the rune at byte offset i in s is
// preceded by a non-alphanumeric character (so the match starts a word).
func isWordBoundary(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

// exactScore performs a smart-case substring test: the query is matched
// case-sensitively if it contains an uppercase letter, case-insensitively
// otherwise. The score favors matches nearer the start of the text and
// shorter overall text (tighter matches rank higher). The span is
// returned as a [start, end) codepoint offset pair.
func exactScore(query, text string) (score float64, spans [][]int, ok bool) {
	if query == "" {
		return 0, nil, true
	}

	haystack := text
	needle := query
	if !util.ContainsUpper(query) {
		haystack = strings.ToLower(text)
		needle = strings.ToLower(query)
	}

	i := strings.Index(haystack, needle)
	if i == -1 {
		return 0, nil, false
	}

	start := utf8.RuneCountInString(text[:i])
	length := utf8.RuneCountInString(query)

	score = 100.0 - float64(start) - float64(utf8.RuneCountInString(text))*0.01
	return score, [][]int{{start, start + length}}, true
}
