package storage

import "time"

// Record is a single stored key-value pair.
type Record struct {
	Collection string
	Key        string
	Value      []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
