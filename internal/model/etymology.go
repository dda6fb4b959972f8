package model

// Version is the etymologia release
const Version = "0.1.0"

// Etymology is the dictionary record for one word.
// A nil *Etymology is the absent marker: the word was looked up and the
// lexicon has no entry for it. It serializes to JSON null.
type Etymology struct {
	Definition string `json:"definition" yaml:"definition"`
	URL        string `json:"url" yaml:"url"`
}

// WordEtymologies maps canonical words of one epithet to their entries
type WordEtymologies map[string]*Etymology

// EpithetDocument is the input document
type EpithetDocument struct {
	Epithets []string `json:"epithets" yaml:"epithets"`
}
