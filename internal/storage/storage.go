package storage

import (
	"chorddht/internal/domain"
)

// Storage is the minimal key/value contract a Chord node needs: plain
// string keys and values, plus a range query over the bucketized key
// space for handoff at shutdown time.
type Storage interface {
	// Put inserts or overwrites the value for key.
	Put(key, value string) error

	// Get returns the value stored under key, or
	// domain.ErrResourceNotFound.
	Get(key string) (string, error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error

	// Between returns every stored key/value pair whose bucket lies in
	// the half-open interval (from, to] on the ring.
	Between(from, to domain.ID) map[string]string

	// Take atomically removes and returns every key/value pair whose
	// bucket lies in the half-open interval (from, to], for handoff at
	// shutdown: ownership moves to the caller in the same step the
	// entries disappear locally.
	Take(from, to domain.ID) map[string]string
}
