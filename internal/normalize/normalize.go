// Package normalize turns raw epithets into candidate dictionary words.
package normalize

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultExtraLetters are the Finnish letters allowed besides a-z
const DefaultExtraLetters = "äåö"

// Normalizer cleans epithets and decomposes them into word sets
type Normalizer struct {
	extra    map[rune]bool
	splitter Splitter
}

// NewNormalizer creates a Normalizer that keeps a-z, the given extra letters,
// space and hyphen. A nil splitter disables compound splitting.
func NewNormalizer(extraLetters string, splitter Splitter) *Normalizer {
	if splitter == nil {
		splitter = NopSplitter{}
	}

	extra := make(map[rune]bool)
	for _, r := range norm.NFC.String(strings.ToLower(extraLetters)) {
		extra[r] = true
	}

	return &Normalizer{
		extra:    extra,
		splitter: splitter,
	}
}

// Normalize lowercases the epithet and removes every character outside the
// permitted alphabet. Decomposed diacritics are composed first so that
// "a" + U+0308 survives as "ä".
func (n *Normalizer) Normalize(epithet string) string {
	lowered := cases.Lower(language.Finnish).String(norm.NFC.String(epithet))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if n.permitted(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decompose returns the word set of an epithet: its space separated tokens
// plus the compound segments of each token. Empty tokens are dropped, so an
// epithet without any permitted letters yields an empty set. The result is
// sorted.
func (n *Normalizer) Decompose(epithet string) []string {
	words := make(map[string]struct{})

	for _, token := range n.tokens(epithet) {
		words[token] = struct{}{}
		for _, part := range n.segments(token) {
			words[part] = struct{}{}
		}
	}

	result := make([]string, 0, len(words))
	for word := range words {
		result = append(result, word)
	}
	sort.Strings(result)
	return result
}

// Compounds renders every token of the epithet that splits into segments,
// e.g. "pää=kaupunki", in token order
func (n *Normalizer) Compounds(epithet string) []string {
	var out []string
	for _, token := range n.tokens(epithet) {
		if parts := n.segments(token); parts != nil {
			out = append(out, Join(parts))
		}
	}
	return out
}

func (n *Normalizer) tokens(epithet string) []string {
	var out []string
	for _, token := range strings.Split(n.Normalize(epithet), " ") {
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// segments returns the non-empty compound parts of a token, or nil when the
// splitter leaves it whole
func (n *Normalizer) segments(token string) []string {
	parts := n.splitter.Split(token)
	if len(parts) < 2 {
		return nil
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (n *Normalizer) permitted(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r == ' ' || r == '-':
		return true
	default:
		return n.extra[r]
	}
}
