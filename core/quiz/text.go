package quiz

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
)

// BlankMarker replaces the answer in a blanked sentence.
const BlankMarker = "_____"

const minKeywordLen = 3

var (
	terminatorRegex = regexp.MustCompile(`[.?!]\s*`)

	stopWords = map[string]struct{}{
		"the": {}, "and": {}, "is": {}, "in": {}, "to": {}, "of": {}, "a": {}, "an": {}, "for": {},
		"on": {}, "with": {}, "as": {}, "by": {}, "this": {}, "that": {}, "it": {}, "from": {},
		"at": {}, "are": {}, "be": {}, "was": {}, "were": {}, "or": {}, "which": {}, "has": {},
	}
)

// IsStopWord reports whether w (any case) is excluded from keyword candidacy.
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

// Sentences lazily splits text on `.`, `?` or `!` followed by optional whitespace.
// Sentences are trimmed; empty ones are not yielded.
// Abbreviations and decimals are not special-cased: "Dr. No" yields "Dr" and "No".
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := strings.TrimSpace(text)
		for rest != "" {
			var sentence string
			if loc := terminatorRegex.FindStringIndex(rest); loc != nil {
				sentence, rest = rest[:loc[0]], rest[loc[1]:]
			} else {
				sentence, rest = rest, ""
			}
			if sentence = strings.TrimSpace(sentence); sentence == "" {
				continue
			}
			if !yield(sentence) {
				return
			}
		}
	}
}

// Keywords returns the words of sentence made of at least 3 ASCII letters, in order,
// with duplicates and casing kept and stop words removed.
// A word is a maximal run of Unicode letters, numbers (any N category, so "²" and "Ⅰ" too)
// and underscores: "abc1", "x²abc" or "café" are not keywords.
// Combining marks are not word characters, so a decomposed "cafe\u0301" yields "cafe".
func Keywords(sentence string) []string {
	var keywords []string
	for _, span := range wordSpans(sentence) {
		w := sentence[span[0]:span[1]]
		if isAlphaWord(w) && !IsStopWord(w) {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// Blank replaces every case-insensitive whole-word occurrence of word in sentence with BlankMarker.
func Blank(sentence, word string) string {
	var sb strings.Builder
	last := 0
	for _, span := range wordSpans(sentence) {
		if !strings.EqualFold(sentence[span[0]:span[1]], word) {
			continue
		}
		sb.WriteString(sentence[last:span[0]])
		sb.WriteString(BlankMarker)
		last = span[1]
	}
	sb.WriteString(sentence[last:])
	return sb.String()
}

// wordSpans returns the byte offsets of every maximal run of word characters in s.
func wordSpans(s string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(s)})
	}
	return spans
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isAlphaWord(w string) bool {
	if len(w) < minKeywordLen {
		return false
	}
	for i := 0; i < len(w); i++ {
		c := w[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
