package remote

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrUnsupported   = errors.New("operation not supported by this backend")
	ErrNotConfigured = errors.New("remote backend is not configured")
)

// Capability declares which optional operations a backend supports.
type Capability uint8

const (
	CapUpdate Capability = 1 << iota
	CapDelete
	CapBatch

	CapAll = CapUpdate | CapDelete | CapBatch
)

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Document is implemented by every record type stored in a collection.
// The id lives outside the document body.
type Document interface {
	GetID() string
	SetID(id string)
}

// Ptr constrains PT to a pointer to T that implements Document.
type Ptr[T any] interface {
	*T
	Document
}

// Collection is a named collection of the hosted document database.
type Collection[T any] interface {
	Name() string
	Capabilities() Capability

	// Create stores doc under a backend-assigned id and returns that id.
	Create(ctx context.Context, doc T) (string, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, q Query) ([]T, error)

	// Set writes doc under id, replacing what was there. Requires CapUpdate.
	Set(ctx context.Context, id string, doc T) error
	// Delete removes id. Requires CapDelete.
	Delete(ctx context.Context, id string) error
	// Batch applies every write or none of them. Requires CapBatch.
	Batch(ctx context.Context, writes []Write[T]) ([]string, error)
}

type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteSet
	WriteDelete
)

// Write is one operation of a batch. Create ignores ID.
type Write[T any] struct {
	Kind WriteKind
	ID   string
	Doc  T
}
