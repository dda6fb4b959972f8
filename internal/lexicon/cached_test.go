package lexicon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/etymologia/internal/cache"
	"github.com/ppiankov/etymologia/internal/model"
)

type countingLexicon struct {
	exists  map[string]bool
	records map[string]*model.Etymology
	err     error
	calls   int
}

func (l *countingLexicon) Exists(ctx context.Context, word string) (bool, error) {
	l.calls++
	if l.err != nil {
		return false, l.err
	}
	return l.exists[word], nil
}

func (l *countingLexicon) Lookup(ctx context.Context, word string) (*model.Etymology, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.records[word], nil
}

func TestCachedLexicon_MemoizesAnswers(t *testing.T) {
	inner := &countingLexicon{
		exists:  map[string]bool{"vanha": true},
		records: map[string]*model.Etymology{"vanha": {Definition: "old", URL: "u/5"}},
	}
	c := NewCachedLexicon(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, newTestLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.Exists(ctx, "vanha")
		if err != nil || !ok {
			t.Fatalf("Exists = %v, %v", ok, err)
		}
		etym, err := c.Lookup(ctx, "vanha")
		if err != nil || etym == nil || etym.Definition != "old" {
			t.Fatalf("Lookup = %+v, %v", etym, err)
		}
		ok, err = c.Exists(ctx, "akka")
		if err != nil || ok {
			t.Fatalf("Exists(akka) = %v, %v", ok, err)
		}
	}

	if inner.calls != 3 {
		t.Errorf("expected 3 calls to the wrapped lexicon, got %d", inner.calls)
	}
	hits, misses := c.Stats()
	if hits != 6 || misses != 3 {
		t.Errorf("expected 6 hits / 3 misses, got %d / %d", hits, misses)
	}
}

func TestCachedLexicon_CachesMissingRecord(t *testing.T) {
	inner := &countingLexicon{records: map[string]*model.Etymology{}}
	c := NewCachedLexicon(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, newTestLogger())

	for i := 0; i < 2; i++ {
		etym, err := c.Lookup(context.Background(), "akka")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if etym != nil {
			t.Errorf("expected nil record, got %+v", etym)
		}
	}
	if inner.calls != 1 {
		t.Errorf("absent record should be cached, got %d calls", inner.calls)
	}
}

func TestCachedLexicon_DoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	inner := &countingLexicon{err: boom}
	c := NewCachedLexicon(inner, cache.NewMemoryCache(time.Minute, time.Minute), 0, newTestLogger())

	for i := 0; i < 2; i++ {
		if _, err := c.Exists(context.Background(), "vanha"); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped error, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("errors must not be cached, got %d calls", inner.calls)
	}
}
