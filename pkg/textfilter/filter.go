package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stopWords are dropped from extracted keywords
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"from": true, "into": true, "onto": true, "over": true, "under": true, "about": true,
	"was": true, "were": true, "are": true, "has": true, "had": true, "have": true,
	"her": true, "his": true, "him": true, "she": true, "they": true, "them": true,
	"their": true, "you": true, "your": true, "our": true, "its": true, "but": true,
	"not": true, "all": true, "any": true, "who": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "then": true, "than": true, "there": true,
	"after": true, "before": true, "again": true, "very": true, "just": true, "also": true,
}

// Fold returns the case-folded, trimmed form of s for comparisons and tags.
func Fold(s string) string {
	return strings.TrimSpace(cases.Fold().String(s))
}

// Title capitalizes each word of s.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Keywords extracts folded content words from text in order of first appearance.
// Words shorter than three letters and common stop words are skipped.
func Keywords(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	seen := map[string]bool{}
	var out []string
	for _, w := range words {
		w = Fold(w)
		if len([]rune(w)) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// TabooFilter finds and withholds forbidden topics in text
type TabooFilter struct {
	taboos  []string
	regexes map[string]*regexp.Regexp
}

// NewTabooFilter compiles a word-boundary matcher for each taboo phrase.
// Longer phrases are matched first so "old war" wins over "war".
func NewTabooFilter(taboos []string) *TabooFilter {
	tf := &TabooFilter{regexes: make(map[string]*regexp.Regexp)}
	for _, t := range taboos {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := Fold(t)
		if _, ok := tf.regexes[key]; ok {
			continue
		}
		pattern := `\b` + regexp.QuoteMeta(t) + `\b`
		tf.regexes[key] = regexp.MustCompile(`(?i)` + pattern)
		tf.taboos = append(tf.taboos, key)
	}
	sort.SliceStable(tf.taboos, func(i, j int) bool {
		return len(tf.taboos[i]) > len(tf.taboos[j])
	})
	return tf
}

// Matches returns the taboos present in text.
func (tf *TabooFilter) Matches(text string) []string {
	var out []string
	for _, t := range tf.taboos {
		if tf.regexes[t].MatchString(text) {
			out = append(out, t)
		}
	}
	return out
}

// Contains reports whether text mentions any taboo.
func (tf *TabooFilter) Contains(text string) bool {
	return len(tf.Matches(text)) > 0
}

// Redact replaces every taboo mention with replacement.
func (tf *TabooFilter) Redact(text, replacement string) string {
	result := text
	for _, t := range tf.taboos {
		result = tf.regexes[t].ReplaceAllString(result, replacement)
	}
	return result
}

// ContainsTaboo reports whether text mentions any of taboos.
func ContainsTaboo(text string, taboos []string) bool {
	if len(taboos) == 0 {
		return false
	}
	return NewTabooFilter(taboos).Contains(text)
}
