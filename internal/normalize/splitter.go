package normalize

import "strings"

// Separator joins compound segments when a split is rendered as text
const Separator = "="

// Splitter breaks a canonical word into compound segments.
// A word that is not a compound is returned as a single segment.
type Splitter interface {
	Split(word string) []string
}

// NopSplitter never splits
type NopSplitter struct{}

// Split returns the word unchanged
func (NopSplitter) Split(word string) []string {
	return []string{word}
}

// Join renders compound segments with the separator, e.g. "kirkko=väki"
func Join(parts []string) string {
	return strings.Join(parts, Separator)
}

type harmony int

const (
	neutral harmony = iota
	front
	back
)

// CompoundSplitter splits Finnish compounds on hyphens and on vowel harmony
// breaks. Finnish stems do not mix front (ä ö y) and back (a o u) vowels, so a
// switch between the two marks a likely boundary. The boundary is placed in
// front of the consonant that opens the syllable of the conflicting vowel.
type CompoundSplitter struct{}

// Split returns the compound segments of word
func (CompoundSplitter) Split(word string) []string {
	var parts []string
	for _, piece := range strings.Split(word, "-") {
		if piece == "" {
			continue
		}
		parts = append(parts, splitHarmony(piece)...)
	}
	if len(parts) == 0 {
		return []string{word}
	}
	return parts
}

func splitHarmony(word string) []string {
	runes := []rune(word)
	var parts []string

	start := 0
	current := neutral
	for i, r := range runes {
		h := vowelHarmony(r)
		if h == neutral {
			continue
		}
		if current == neutral || current == h {
			current = h
			continue
		}

		cut := i
		if i > start && !isVowel(runes[i-1]) {
			cut = i - 1
		}
		if validSegment(runes[start:cut]) && validSegment(runes[cut:]) {
			parts = append(parts, string(runes[start:cut]))
			start = cut
		}
		current = h
	}

	return append(parts, string(runes[start:]))
}

func validSegment(runes []rune) bool {
	if len(runes) < 2 {
		return false
	}
	for _, r := range runes {
		if isVowel(r) {
			return true
		}
	}
	return false
}

func vowelHarmony(r rune) harmony {
	switch r {
	case 'ä', 'ö', 'y':
		return front
	case 'a', 'o', 'u':
		return back
	default:
		return neutral
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y', 'ä', 'ö', 'å':
		return true
	default:
		return false
	}
}
