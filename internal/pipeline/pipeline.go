package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/etymologia/internal/cache"
	"github.com/ppiankov/etymologia/internal/lexicon"
	"github.com/ppiankov/etymologia/internal/model"
	"github.com/ppiankov/etymologia/internal/normalize"
	"github.com/ppiankov/etymologia/internal/store"
)

// Enricher drives the enrichment: for every epithet it derives the word set,
// queries the lexicon for words that still need it, merges the answers into
// the store and checkpoints the store.
type Enricher struct {
	lexicon    lexicon.Lexicon
	store      *store.Store
	normalizer *normalize.Normalizer
	overwrite  bool
	requests   func() int64              // Optional HTTP request counter
	cacheStats func() (hits, misses int) // Optional response cache counters
	log        *slog.Logger
}

// NewEnricher creates an Enricher around an already built lexicon
func NewEnricher(lex lexicon.Lexicon, st *store.Store, n *normalize.Normalizer, overwrite bool, logger *slog.Logger) *Enricher {
	return &Enricher{
		lexicon:    lex,
		store:      st,
		normalizer: n,
		overwrite:  overwrite,
		log:        logger.With("component", "enricher"),
	}
}

// New builds the Kotus client, the response cache and the normalizer from cfg
func New(cfg *model.Config, st *store.Store, logger *slog.Logger) (*Enricher, error) {
	client, err := lexicon.NewKotusClient(lexicon.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("create lexicon client: %w", err)
	}

	var lex lexicon.Lexicon = client
	var cached *lexicon.CachedLexicon
	if cfg.Cache.Enabled {
		if c := newResponseCache(cfg); c != nil {
			cached = lexicon.NewCachedLexicon(client, c, 0, logger)
			lex = cached
		}
	}

	var splitter normalize.Splitter = normalize.NopSplitter{}
	if cfg.Normalize.SplitCompounds {
		splitter = normalize.CompoundSplitter{}
	}

	e := NewEnricher(lex, st, normalize.NewNormalizer(cfg.Normalize.ExtraLetters, splitter), cfg.Enrich.Overwrite, logger)
	e.requests = client.Requests
	if cached != nil {
		e.cacheStats = cached.Stats
	}
	return e, nil
}

// newResponseCache keeps answers in memory for the run and, with a cache
// directory, on disk across runs. The overwrite policy must reach the
// lexicon for every word, so it gets no readable cache at all: answers are
// only written to disk, or not cached without a directory.
func newResponseCache(cfg *model.Config) cache.Cache {
	if cfg.Enrich.Overwrite {
		if cfg.Cache.Dir == "" {
			return nil
		}
		return cache.NewRefreshingCache(cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL))
	}

	memory := cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
	if cfg.Cache.Dir == "" {
		return memory
	}
	return cache.NewLayeredCache(memory, cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL))
}

// WordState is the outcome for one (epithet, word) pair
type WordState int

const (
	StateSkipped WordState = iota
	StateFound
	StateAbsent
)

func (s WordState) String() string {
	switch s {
	case StateSkipped:
		return "skipped"
	case StateFound:
		return "found"
	case StateAbsent:
		return "absent"
	default:
		return fmt.Sprintf("WordState(%d)", int(s))
	}
}

// EpithetResult counts the word outcomes of one epithet
type EpithetResult struct {
	Epithet   string
	Words     int
	Skipped   int
	Found     int
	Absent    int
	Anomalies int // exists said yes, lookup found no exact match
}

// Queried is the number of words resolved through the lexicon
func (r EpithetResult) Queried() int {
	return r.Found + r.Absent
}

// Summary aggregates a run
type Summary struct {
	Epithets  int
	Words     int
	Skipped   int
	Found     int
	Absent    int
	Anomalies int
	CacheHits int   // lexicon calls answered by the response cache
	Requests  int64 // HTTP requests sent to the lexicon, retries included
	Duration  time.Duration
}

// Queried is the number of words resolved through the lexicon. Some of
// their calls may have been answered by the response cache; see CacheHits.
func (s Summary) Queried() int {
	return s.Found + s.Absent
}

func (s *Summary) add(r EpithetResult) {
	s.Words += r.Words
	s.Skipped += r.Skipped
	s.Found += r.Found
	s.Absent += r.Absent
	s.Anomalies += r.Anomalies
}

// Run processes the epithets in input order. The store is persisted after
// every epithet, so an interrupted run repeats at most the epithet in flight.
func (e *Enricher) Run(ctx context.Context, epithets []string) (summary Summary, err error) {
	start := time.Now()
	defer func() {
		summary.Duration = time.Since(start)
		summary.Requests = e.requestCount()
		if e.cacheStats != nil {
			summary.CacheHits, _ = e.cacheStats()
		}
	}()

	e.log.InfoContext(ctx, "enrichment started",
		slog.Int("epithets", len(epithets)),
		slog.Bool("overwrite", e.overwrite))

	for i, epithet := range epithets {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("interrupted before epithet %d of %d: %w", i+1, len(epithets), err)
		}

		result, err := e.EnrichEpithet(ctx, epithet)
		summary.add(result)
		if err != nil {
			return summary, fmt.Errorf("epithet %q: %w", epithet, err)
		}
		summary.Epithets++
	}

	e.log.InfoContext(ctx, "enrichment finished",
		slog.Int("epithets", summary.Epithets),
		slog.Int("queried", summary.Queried()),
		slog.Int("skipped", summary.Skipped),
		slog.Int("anomalies", summary.Anomalies))

	return summary, nil
}

// EnrichEpithet resolves every word of one epithet, then merges the answers
// and persists the store. Nothing is merged when a lookup fails.
func (e *Enricher) EnrichEpithet(ctx context.Context, epithet string) (EpithetResult, error) {
	words := e.normalizer.Decompose(epithet)
	result := EpithetResult{Epithet: epithet, Words: len(words)}

	if compounds := e.normalizer.Compounds(epithet); len(compounds) > 0 {
		e.log.DebugContext(ctx, "compound words split",
			slog.String("epithet", epithet),
			slog.Any("compounds", compounds))
	}

	resolved := make(map[string]*model.Etymology, len(words))
	for _, word := range words {
		if !e.overwrite && e.store.Has(epithet, word) {
			e.log.DebugContext(ctx, "word already recorded, skipping", slog.String("word", word))
			result.Skipped++
			continue
		}

		etym, state, anomaly, err := e.resolve(ctx, word)
		if err != nil {
			return result, err
		}
		switch state {
		case StateFound:
			result.Found++
		case StateAbsent:
			result.Absent++
		}
		if anomaly {
			result.Anomalies++
		}
		resolved[word] = etym
	}

	e.store.Ensure(epithet)
	for word, etym := range resolved {
		e.store.Merge(epithet, word, etym)
	}
	if err := e.store.Persist(); err != nil {
		return result, fmt.Errorf("persist: %w", err)
	}

	e.log.DebugContext(ctx, "epithet done",
		slog.String("epithet", epithet),
		slog.Int("words", result.Words),
		slog.Int("found", result.Found),
		slog.Int("absent", result.Absent),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// resolve runs the exists/lookup protocol for one word. The index behind
// Exists and the article search behind Lookup can disagree; a lookup without
// an exact match is reported as an anomaly and recorded as absent.
func (e *Enricher) resolve(ctx context.Context, word string) (*model.Etymology, WordState, bool, error) {
	e.log.InfoContext(ctx, "searching word", slog.String("word", word))

	exists, err := e.lexicon.Exists(ctx, word)
	if err != nil {
		return nil, StateAbsent, false, err
	}
	if !exists {
		e.log.InfoContext(ctx, "no etymology for word", slog.String("word", word))
		return nil, StateAbsent, false, nil
	}

	etym, err := e.lexicon.Lookup(ctx, word)
	if err != nil {
		return nil, StateAbsent, false, err
	}
	if etym == nil {
		e.log.WarnContext(ctx, "word should exist but result is missing", slog.String("word", word))
		return nil, StateAbsent, true, nil
	}

	return etym, StateFound, false, nil
}

func (e *Enricher) requestCount() int64 {
	if e.requests == nil {
		return 0
	}
	return e.requests()
}
