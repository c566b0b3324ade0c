package storage

import "context"

// Collection scopes Get/Set to one named collection, so callers that only
// need a flat key-value store never see collection names.
type Collection struct {
	db   *DB
	name string
}

func (d *DB) Collection(name string) *Collection {
	return &Collection{db: d, name: name}
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.db.Get(ctx, c.name, key)
}

func (c *Collection) Set(ctx context.Context, key string, value []byte) error {
	return c.db.Set(ctx, c.name, key, value)
}

func (c *Collection) List(ctx context.Context) ([]Record, error) {
	return c.db.List(ctx, c.name)
}
