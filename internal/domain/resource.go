package domain

import "errors"

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrNotResponsible   = errors.New("node not responsible for the given key")
)

// Resource is a single stored key/value pair, keyed both by its raw
// string key (what the client passed) and its bucketized ID (where it
// lives on the ring).
type Resource struct {
	Key    ID
	RawKey string
	Value  string
}
