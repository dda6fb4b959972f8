// Package lexicon queries the external dictionary for word etymologies.
package lexicon

import (
	"context"
	"errors"

	"github.com/ppiankov/etymologia/internal/model"
)

// ErrDisallowed is returned when robots.txt forbids querying the lexicon
var ErrDisallowed = errors.New("lexicon: request disallowed by robots.txt")

// Lexicon is the two-step dictionary protocol: a cheap existence check,
// then a detailed lookup for words that exist.
type Lexicon interface {
	// Exists reports whether the dictionary has an entry whose value equals word exactly.
	Exists(ctx context.Context, word string) (bool, error)

	// Lookup fetches the etymology record of word.
	// It returns nil, nil when no candidate matches word exactly.
	Lookup(ctx context.Context, word string) (*model.Etymology, error)
}
