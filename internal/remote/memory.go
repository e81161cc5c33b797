package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCollection is an in-process Collection. It backs notifications when
// no hosted database is configured and stands in for Firestore in tests.
type MemoryCollection[T any, PT Ptr[T]] struct {
	name string
	caps Capability

	mu   sync.RWMutex
	docs map[string]T
	seq  []string

	// Latency delays every call; Fail, when set, is returned instead of
	// touching the data. Both simulate an unhealthy backend.
	latency time.Duration
	fail    error
}

func NewMemoryCollection[T any, PT Ptr[T]](name string) *MemoryCollection[T, PT] {
	return &MemoryCollection[T, PT]{
		name: name,
		caps: CapAll,
		docs: make(map[string]T),
	}
}

func (c *MemoryCollection[T, PT]) Name() string {
	return c.name
}

func (c *MemoryCollection[T, PT]) Capabilities() Capability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caps
}

// SetCapabilities restricts the operations the collection advertises.
func (c *MemoryCollection[T, PT]) SetCapabilities(caps Capability) {
	c.mu.Lock()
	c.caps = caps
	c.mu.Unlock()
}

// SetLatency delays every subsequent call by d.
func (c *MemoryCollection[T, PT]) SetLatency(d time.Duration) {
	c.mu.Lock()
	c.latency = d
	c.mu.Unlock()
}

// SetFailure makes every subsequent call return err. Pass nil to recover.
func (c *MemoryCollection[T, PT]) SetFailure(err error) {
	c.mu.Lock()
	c.fail = err
	c.mu.Unlock()
}

// Len returns the number of stored documents.
func (c *MemoryCollection[T, PT]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *MemoryCollection[T, PT]) wait(ctx context.Context) error {
	c.mu.RLock()
	latency, fail := c.latency, c.fail
	c.mu.RUnlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fail
}

func (c *MemoryCollection[T, PT]) Create(ctx context.Context, doc T) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.create(doc), nil
}

func (c *MemoryCollection[T, PT]) create(doc T) string {
	id := uuid.NewString()
	PT(&doc).SetID(id)
	c.docs[id] = doc
	c.seq = append(c.seq, id)
	return id
}

func (c *MemoryCollection[T, PT]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return zero, fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
	}
	return doc, nil
}

func (c *MemoryCollection[T, PT]) List(ctx context.Context, q Query) ([]T, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	result := make([]T, 0, len(c.docs))
	for _, id := range c.seq {
		doc, ok := c.docs[id]
		if !ok {
			continue
		}
		if Matches(PT(&doc), q.Filters) {
			result = append(result, doc)
		}
	}
	c.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(result, func(i, j int) bool {
			a, _ := FieldValue(PT(&result[i]), q.OrderBy)
			b, _ := FieldValue(PT(&result[j]), q.OrderBy)
			cmp, _ := Compare(a, b)
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}

	return result, nil
}

func (c *MemoryCollection[T, PT]) Set(ctx context.Context, id string, doc T) error {
	if !c.Capabilities().Has(CapUpdate) {
		return ErrUnsupported
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(id, doc)
	return nil
}

func (c *MemoryCollection[T, PT]) set(id string, doc T) {
	PT(&doc).SetID(id)
	if _, exists := c.docs[id]; !exists {
		c.seq = append(c.seq, id)
	}
	c.docs[id] = doc
}

func (c *MemoryCollection[T, PT]) Delete(ctx context.Context, id string) error {
	if !c.Capabilities().Has(CapDelete) {
		return ErrUnsupported
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(id)
	return nil
}

func (c *MemoryCollection[T, PT]) remove(id string) {
	if _, ok := c.docs[id]; !ok {
		return
	}
	delete(c.docs, id)
	for i, existing := range c.seq {
		if existing == id {
			c.seq = append(c.seq[:i], c.seq[i+1:]...)
			break
		}
	}
}

func (c *MemoryCollection[T, PT]) Batch(ctx context.Context, writes []Write[T]) ([]string, error) {
	if !c.Capabilities().Has(CapBatch) {
		return nil, ErrUnsupported
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Readers never observe a partially applied batch.
	var ids []string
	for _, w := range writes {
		switch w.Kind {
		case WriteCreate:
			ids = append(ids, c.create(w.Doc))
		case WriteSet:
			c.set(w.ID, w.Doc)
			ids = append(ids, w.ID)
		case WriteDelete:
			c.remove(w.ID)
			ids = append(ids, w.ID)
		}
	}

	return ids, nil
}
