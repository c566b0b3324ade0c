package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

// CacheCollection is the store collection holding quarter mappings.
const CacheCollection = "schedule"

// Store is the external key-value store behind the cache.
// *storage.Collection satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MappingBuilder produces the mapping for an academic year on a cache miss.
type MappingBuilder interface {
	Build(ctx context.Context, year int) (QuarterMapping, error)
}

// Cache keeps one QuarterMapping per academic year in a Store. Published
// calendars do not change, so entries never expire.
type Cache struct {
	store   Store
	builder MappingBuilder
	loc     *time.Location
	log     Logger
	group   singleflight.Group
}

// NewCache returns a cache over store. A nil store disables caching and
// every call builds.
func NewCache(store Store, builder MappingBuilder, log Logger) *Cache {
	return &Cache{
		store:   store,
		builder: builder,
		loc:     Pacific(),
		log:     orNop(log),
	}
}

func CacheKey(year int) string {
	return fmt.Sprintf("quarterMapping%d", year)
}

// GetOrBuild returns the mapping for year from the store, building and
// storing it on a miss. Store failures never fail the call: a read error is
// a miss and a write error only loses the cache entry. Concurrent misses for
// the same year share one build.
func (c *Cache) GetOrBuild(ctx context.Context, year int) (QuarterMapping, error) {
	key := CacheKey(year)
	if m, ok := c.lookup(ctx, key); ok {
		return m, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have finished a build since our lookup.
		if m, ok := c.lookup(ctx, key); ok {
			return m, nil
		}
		m, err := c.builder.Build(ctx, year)
		if err != nil {
			return nil, err
		}
		c.save(ctx, key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	m := v.(QuarterMapping)
	if shared {
		m = m.clone()
	}
	return m, nil
}

func (c *Cache) lookup(ctx context.Context, key string) (QuarterMapping, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warnf("%v: reading %s: %v; rebuilding", ErrStore, key, err)
		return nil, false
	}
	if !ok {
		c.log.Debugf("Cache miss for %s", key)
		return nil, false
	}
	m, err := c.decode(raw)
	if err != nil {
		c.log.Warnf("Discarding cached %s: %v", key, err)
		return nil, false
	}
	if len(m) == 0 {
		c.log.Debugf("Cached %s is empty, rebuilding", key)
		return nil, false
	}
	c.log.Debugf("Cache hit for %s", key)
	return m, true
}

func (c *Cache) decode(raw []byte) (QuarterMapping, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid JSON")
	}
	var m QuarterMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for label, r := range m {
		if r.Begin.IsZero() || r.End.IsZero() {
			return nil, fmt.Errorf("quarter %q is missing a date", label)
		}
		m[label] = DateRange{Begin: Correct(r.Begin, c.loc), End: Correct(r.End, c.loc)}
	}
	return m, nil
}

func (c *Cache) save(ctx context.Context, key string, m QuarterMapping) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		c.log.Errorf("Encoding %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.log.Warnf("%v: writing %s: %v", ErrStore, key, err)
		return
	}
	c.log.Debugf("Cached %s", key)
}
