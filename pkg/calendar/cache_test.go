package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCacheKey(t *testing.T) {
	if got := CacheKey(2023); got != "quarterMapping2023" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestGetOrBuildCachesAfterFirstBuild(t *testing.T) {
	f := newFakeFetcher()
	store := newMemStore()
	c := NewCache(store, NewBuilder(f, "", nil), nil)
	ctx := context.Background()

	first, err := c.GetOrBuild(ctx, 2023)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := c.GetOrBuild(ctx, 2023)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if f.totalCalls() != 1 {
		t.Fatalf("expected one fetch, got %d", f.totalCalls())
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached mapping differs (-first +second):\n%s", diff)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("mappings are not byte-identical:\n%s\n%s", a, b)
	}
	if !bytes.Equal(store.data[CacheKey(2023)], a) {
		t.Fatalf("stored value differs from returned mapping")
	}
}

func TestGetOrBuildRepairsMidnightUTCValues(t *testing.T) {
	// Values written by an older deployment were stamped at midnight UTC.
	store := newMemStore()
	store.data[CacheKey(2023)] = []byte(`{"Fall 2023":{"begin":"2023-09-28T00:00:00Z","end":"2023-12-08T00:00:00Z"}}`)
	f := newFakeFetcher()
	c := NewCache(store, NewBuilder(f, "", nil), nil)

	m, err := c.GetOrBuild(context.Background(), 2023)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.totalCalls() != 0 {
		t.Fatalf("expected cache hit, got %d fetches", f.totalCalls())
	}
	fall := m["Fall 2023"]
	if !fall.Begin.Equal(pacificDay(t, 2023, time.September, 28)) {
		t.Fatalf("expected local Sep 28, got %s", fall.Begin)
	}
	if !fall.End.Equal(pacificDay(t, 2023, time.December, 8)) {
		t.Fatalf("expected local Dec 8, got %s", fall.End)
	}
}

func TestGetOrBuildStoreReadFailureRebuilds(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection not established")
	f := newFakeFetcher()
	log := &recordingLogger{}
	c := NewCache(store, NewBuilder(f, "", nil), log)

	m, err := c.GetOrBuild(context.Background(), 2023)
	if err != nil {
		t.Fatalf("expected rebuild despite store failure, got %v", err)
	}
	if len(m) == 0 {
		t.Fatalf("expected a mapping")
	}
	if f.totalCalls() != 1 {
		t.Fatalf("expected one fetch, got %d", f.totalCalls())
	}
	if !log.warned("connection not established") {
		t.Fatalf("expected store failure to be logged, got %v", log.warns)
	}
}

func TestGetOrBuildStoreWriteFailureReturnsMapping(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("write rejected")
	log := &recordingLogger{}
	c := NewCache(store, NewBuilder(newFakeFetcher(), "", nil), log)

	m, err := c.GetOrBuild(context.Background(), 2023)
	if err != nil {
		t.Fatalf("expected mapping despite write failure, got %v", err)
	}
	if len(m) != 6 {
		t.Fatalf("expected 6 quarters, got %d", len(m))
	}
	if !log.warned("write rejected") {
		t.Fatalf("expected write failure to be logged, got %v", log.warns)
	}
}

func TestGetOrBuildDiscardsCorruptValues(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":     `{"Fall 2023":`,
		"empty":        `{}`,
		"missing date": `{"Fall 2023":{"begin":"2023-09-28T00:00:00Z"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			store.data[CacheKey(2023)] = []byte(raw)
			f := newFakeFetcher()
			c := NewCache(store, NewBuilder(f, "", nil), nil)

			m, err := c.GetOrBuild(context.Background(), 2023)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.totalCalls() != 1 || len(m) != 6 {
				t.Fatalf("expected a rebuild, got %d fetches and %d quarters", f.totalCalls(), len(m))
			}
		})
	}
}

func TestGetOrBuildDoesNotCacheFailures(t *testing.T) {
	store := newMemStore()
	f := newFakeFetcher()
	c := NewCache(store, NewBuilder(f, "", nil), nil)

	if _, err := c.GetOrBuild(context.Background(), 2030); !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
	if store.sets != 0 {
		t.Fatalf("expected nothing stored, got %d writes", store.sets)
	}
	if _, err := c.GetOrBuild(context.Background(), 2030); !errors.Is(err, ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished again, got %v", err)
	}
	if f.totalCalls() != 2 {
		t.Fatalf("expected a fetch per attempt, got %d", f.totalCalls())
	}
}

func TestGetOrBuildWithoutStore(t *testing.T) {
	f := newFakeFetcher()
	c := NewCache(nil, NewBuilder(f, "", nil), nil)
	for i := 0; i < 2; i++ {
		if _, err := c.GetOrBuild(context.Background(), 2023); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if f.totalCalls() != 2 {
		t.Fatalf("expected every call to build without a store, got %d fetches", f.totalCalls())
	}
}

// blockingBuilder holds every build until release is closed.
type blockingBuilder struct {
	mu      sync.Mutex
	builds  int
	started chan struct{}
	release chan struct{}
}

func (b *blockingBuilder) Build(ctx context.Context, year int) (QuarterMapping, error) {
	b.mu.Lock()
	b.builds++
	first := b.builds == 1
	b.mu.Unlock()
	if first {
		close(b.started)
	}
	<-b.release
	return QuarterMapping{"Fall 2023": {
		Begin: time.Date(2023, time.September, 28, 0, 0, 0, 0, Pacific()),
		End:   time.Date(2023, time.December, 8, 0, 0, 0, 0, Pacific()),
	}}, nil
}

func TestGetOrBuildSuppressesConcurrentBuilds(t *testing.T) {
	b := &blockingBuilder{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCache(newMemStore(), b, nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := c.GetOrBuild(context.Background(), 2023)
			errs <- err
		}()
	}

	<-b.started
	// Give the other callers time to join the in-flight build.
	time.Sleep(50 * time.Millisecond)
	close(b.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if b.builds != 1 {
		t.Fatalf("expected a single build, got %d", b.builds)
	}
}
