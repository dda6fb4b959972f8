// Package store keeps the epithet → word → etymology mapping and persists it
// as the etymologies document.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ppiankov/etymologia/internal/model"
)

// ErrLocked is returned by Open when another run holds the store
var ErrLocked = errors.New("store: etymologies file is locked by another run")

const etymologiesKey = "etymologies"

type epithetMap = orderedmap.OrderedMap[string, model.WordEtymologies]

// rootMap is the top-level object of the persisted document:
// {"etymologies": {epithet: {word: entry}}, ...}. Keys other than
// "etymologies" are kept verbatim and in file order so a rewrite never
// drops them.
type rootMap = orderedmap.OrderedMap[string, json.RawMessage]

// Store is the single owner of the etymology mapping of one run
type Store struct {
	path        string
	etymologies *epithetMap
	root        *rootMap
	lock        *flock.Flock
	log         *slog.Logger
}

// New creates an empty store that persists to path
func New(path string, logger *slog.Logger) *Store {
	root := orderedmap.New[string, json.RawMessage]()
	root.Set(etymologiesKey, nil)
	return &Store{
		path:        path,
		etymologies: orderedmap.New[string, model.WordEtymologies](),
		root:        root,
		log:         logger.With("component", "store"),
	}
}

// Open locks the store for writing and loads the persisted document.
// A missing file yields an empty store. Close releases the lock.
func Open(path string, logger *slog.Logger) (*Store, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	s, err := Load(path, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	s.lock = lock
	return s, nil
}

// Load reads the persisted document without locking it
func Load(path string, logger *slog.Logger) (*Store, error) {
	s := New(path, logger)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("no etymologies file, starting empty", slog.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read etymologies: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	root := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("parse etymologies %s: %w", path, err)
	}

	raw, ok := root.Get(etymologiesKey)
	switch {
	case !ok:
		root.Set(etymologiesKey, nil)
	case !bytes.Equal(bytes.TrimSpace(raw), []byte("null")):
		epithets := orderedmap.New[string, model.WordEtymologies]()
		if err := json.Unmarshal(raw, epithets); err != nil {
			return nil, fmt.Errorf("parse etymologies %s: %w", path, err)
		}
		for pair := epithets.Oldest(); pair != nil; pair = pair.Next() {
			words := pair.Value
			if words == nil {
				words = model.WordEtymologies{}
			}
			s.etymologies.Set(pair.Key, words)
		}
	}
	s.root = root

	s.log.Debug("loaded etymologies",
		slog.String("path", path),
		slog.Int("epithets", s.etymologies.Len()))

	return s, nil
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the word entries recorded for the epithet.
// An unseen epithet yields an empty map.
func (s *Store) Get(epithet string) model.WordEtymologies {
	words, _ := s.etymologies.Get(epithet)
	out := make(model.WordEtymologies, len(words))
	for word, etym := range words {
		out[word] = etym
	}
	return out
}

// Has reports whether an entry (possibly the absent marker) is recorded for the word
func (s *Store) Has(epithet, word string) bool {
	words, ok := s.etymologies.Get(epithet)
	if !ok {
		return false
	}
	_, ok = words[word]
	return ok
}

// Ensure registers the epithet with an empty submap if it is unseen
func (s *Store) Ensure(epithet string) {
	if _, ok := s.etymologies.Get(epithet); !ok {
		s.etymologies.Set(epithet, model.WordEtymologies{})
	}
}

// Merge records the entry for the word, replacing any previous one.
// A nil entry is the absent marker.
func (s *Store) Merge(epithet, word string, entry *model.Etymology) {
	s.Ensure(epithet)
	words, _ := s.etymologies.Get(epithet)
	words[word] = entry
}

// Epithets returns the recorded epithets in insertion order
func (s *Store) Epithets() []string {
	out := make([]string, 0, s.etymologies.Len())
	for pair := s.etymologies.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Len returns the number of recorded epithets
func (s *Store) Len() int {
	return s.etymologies.Len()
}

// Serialize renders the document as indented JSON. Epithets keep insertion
// order, word keys are sorted and absent entries are written as null. Other
// top-level keys of a loaded document are written back unchanged.
func (s *Store) Serialize() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')

	for pair, first := s.root.Oldest(), true; pair != nil; pair, first = pair.Next(), false {
		if !first {
			compact.WriteByte(',')
		}

		key, err := marshalNoEscape(pair.Key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", pair.Key, err)
		}
		compact.Write(key)
		compact.WriteByte(':')

		if pair.Key != etymologiesKey {
			compact.Write(pair.Value)
			continue
		}
		if err := s.writeEtymologies(&compact); err != nil {
			return nil, err
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent etymologies: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (s *Store) writeEtymologies(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for pair, first := s.etymologies.Oldest(), true; pair != nil; pair, first = pair.Next(), false {
		if !first {
			buf.WriteByte(',')
		}

		key, err := marshalNoEscape(pair.Key)
		if err != nil {
			return fmt.Errorf("encode epithet %q: %w", pair.Key, err)
		}
		words, err := marshalNoEscape(pair.Value)
		if err != nil {
			return fmt.Errorf("encode words of %q: %w", pair.Key, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(words)
	}
	buf.WriteByte('}')
	return nil
}

// marshalNoEscape encodes v without HTML escaping; article URLs contain '&'
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Persist replaces the backing file with the current state.
// The document is written to a temp file in the same directory and renamed
// over the target, so the previous file survives any failure.
func (s *Store) Persist() (err error) {
	data, err := s.Serialize()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	s.log.Debug("persisted etymologies",
		slog.String("path", s.path),
		slog.Int("epithets", s.etymologies.Len()),
		slog.Int("bytes", len(data)))

	return nil
}

// Close releases the write lock taken by Open
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
