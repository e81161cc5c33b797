package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/katatrina/backoffice-BE/internal/localstore"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 3 * time.Second
	flushBatchSize = 100
)

// LocalStore is the on-device tier: one JSON blob per entity type plus the
// queue of records created while the remote store was unreachable.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error

	Enqueue(ctx context.Context, collection, localID string) error
	Pending(ctx context.Context, collection string, limit int) ([]localstore.PendingSync, error)
	MarkAttempt(ctx context.Context, id int64, lastError string) error
	Dequeue(ctx context.Context, collection, localID string) error
	SetAlias(ctx context.Context, collection, localID, remoteID string) error
	Alias(ctx context.Context, collection, localID string) (string, bool, error)
	LocalIDs(ctx context.Context, collection, remoteID string) ([]string, error)
}

// Record is a pointer to a storable entity.
type Record[T any] interface {
	remote.Ptr[T]
	Stamp(now time.Time)
}

type Options[T any] struct {
	// Timeout bounds every remote call. Defaults to DefaultTimeout.
	Timeout time.Duration
	// LocalFallback lets creates and lists degrade to the local store. Without
	// it remote failures are returned to the caller.
	LocalFallback bool
	// Derive recomputes derived fields (expiry status...) before filtering.
	Derive func(doc *T, now time.Time)
	// Less orders list results. When nil, the query's OrderBy is used.
	Less func(a, b *T) bool
}

// Repository makes one entity type resilient to a slow or unreachable remote
// store: writes race a timeout and fall back to the local store, reads merge
// both tiers with remote records winning on id collision.
type Repository[T any, PT Record[T]] struct {
	name   string
	remote remote.Collection[T]
	local  LocalStore
	opts   Options[T]
	clock  func() time.Time

	// mu serializes read-modify-write cycles of the local blob.
	mu sync.Mutex
	// flushMu keeps two flushes from pushing the same record twice.
	flushMu sync.Mutex
}

// New creates a repository over the named collection. coll may be nil when
// the remote backend is not configured: every call then goes to the local store.
func New[T any, PT Record[T]](name string, coll remote.Collection[T], local LocalStore, opts Options[T]) *Repository[T, PT] {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Repository[T, PT]{
		name:   name,
		remote: coll,
		local:  local,
		opts:   opts,
		clock:  time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (r *Repository[T, PT]) SetClock(clock func() time.Time) {
	r.clock = clock
}

func (r *Repository[T, PT]) Name() string {
	return r.name
}

func (r *Repository[T, PT]) blobKey() string {
	return "local:" + r.name
}

// Create stores data and returns it with its id set. With a local fallback it
// never fails because of the remote store: on error or timeout the record is
// kept locally under a local- id and queued for synchronization.
func (r *Repository[T, PT]) Create(ctx context.Context, data T) (T, error) {
	if err := Validate(PT(&data)); err != nil {
		return data, err
	}

	PT(&data).Stamp(r.clock())
	PT(&data).SetID("")
	localID := util.GenerateLocalID()

	if r.remote == nil {
		if !r.opts.LocalFallback {
			return data, fmt.Errorf("%s: %w", r.name, remote.ErrNotConfigured)
		}
		return r.createLocal(ctx, data, localID)
	}

	remoteID, err := withTimeout(ctx, r.opts.Timeout, func(ctx context.Context) (string, error) {
		return r.remote.Create(ctx, data)
	})
	if err == nil {
		PT(&data).SetID(remoteID)
		return data, nil
	}

	if !r.opts.LocalFallback {
		log.Error().Err(err).Str("collection", r.name).Msg("remote create failed")
		return data, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	log.Warn().Err(err).Str("collection", r.name).Str("local_id", localID).
		Msg("remote create failed, keeping record locally")
	return r.createLocal(ctx, data, localID)
}

func (r *Repository[T, PT]) createLocal(ctx context.Context, data T, localID string) (T, error) {
	PT(&data).SetID(localID)

	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.loadLocal(ctx)
	if err != nil {
		return data, err
	}
	if err = r.saveLocal(ctx, append(docs, data)); err != nil {
		return data, err
	}

	if err = r.local.Enqueue(ctx, r.name, localID); err != nil {
		log.Warn().Err(err).Str("collection", r.name).Str("local_id", localID).
			Msg("failed to queue local record for sync")
	}

	return data, nil
}

// List returns remote records merged with local ones whose ids the remote
// result does not contain. q is evaluated by the remote store and, in memory,
// on local records; match applies the filters q cannot express.
func (r *Repository[T, PT]) List(ctx context.Context, q remote.Query, match func(*T) bool) ([]T, error) {
	now := r.clock()

	var locals []T
	if r.opts.LocalFallback {
		var err error
		if locals, err = r.snapshotLocal(ctx); err != nil {
			log.Error().Err(err).Str("collection", r.name).Msg("failed to read local records")
		}
		locals = r.filter(locals, q, now)
	}

	if r.remote == nil {
		if !r.opts.LocalFallback {
			return nil, fmt.Errorf("%s: %w", r.name, remote.ErrNotConfigured)
		}
		return r.finish(locals, q, match, now), nil
	}

	remoteDocs, err := withTimeout(ctx, r.opts.Timeout, func(ctx context.Context) ([]T, error) {
		return r.remote.List(ctx, q)
	})
	if err != nil {
		if !r.opts.LocalFallback {
			log.Error().Err(err).Str("collection", r.name).Msg("remote list failed")
			return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}
		log.Warn().Err(err).Str("collection", r.name).Msg("remote list failed, serving local records only")
		return r.finish(locals, q, match, now), nil
	}

	return r.finish(merge[T, PT](remoteDocs, locals), q, match, now), nil
}

// merge appends the local records whose id is not in remoteDocs.
func merge[T any, PT Record[T]](remoteDocs, locals []T) []T {
	seen := make(map[string]struct{}, len(remoteDocs))
	for i := range remoteDocs {
		seen[PT(&remoteDocs[i]).GetID()] = struct{}{}
	}

	merged := remoteDocs
	for i := range locals {
		if _, dup := seen[PT(&locals[i]).GetID()]; !dup {
			merged = append(merged, locals[i])
		}
	}
	return merged
}

func (r *Repository[T, PT]) filter(docs []T, q remote.Query, now time.Time) []T {
	var kept []T
	for i := range docs {
		if r.opts.Derive != nil {
			r.opts.Derive(&docs[i], now)
		}
		if remote.Matches(PT(&docs[i]), q.Filters) {
			kept = append(kept, docs[i])
		}
	}
	return kept
}

func (r *Repository[T, PT]) finish(docs []T, q remote.Query, match func(*T) bool, now time.Time) []T {
	result := make([]T, 0, len(docs))
	for i := range docs {
		if r.opts.Derive != nil {
			r.opts.Derive(&docs[i], now)
		}
		if match == nil || match(&docs[i]) {
			result = append(result, docs[i])
		}
	}

	switch {
	case r.opts.Less != nil:
		sort.SliceStable(result, func(i, j int) bool {
			return r.opts.Less(&result[i], &result[j])
		})
	case q.OrderBy != "":
		sort.SliceStable(result, func(i, j int) bool {
			a, _ := remote.FieldValue(PT(&result[i]), q.OrderBy)
			b, _ := remote.FieldValue(PT(&result[j]), q.OrderBy)
			cmp, _ := remote.Compare(a, b)
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}

// Get returns one record from whichever tier owns its id.
func (r *Repository[T, PT]) Get(ctx context.Context, id string) (T, error) {
	resolved, isLocal, err := r.resolve(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}

	var doc T
	if isLocal {
		doc, err = r.getLocal(ctx, resolved)
	} else {
		doc, err = r.getRemote(ctx, resolved)
	}
	if err == nil && r.opts.Derive != nil {
		r.opts.Derive(&doc, r.clock())
	}
	return doc, err
}

// Update applies mutate to the record and saves it. Local records are
// changed in place, remote ones are rewritten whole: the last writer wins.
func (r *Repository[T, PT]) Update(ctx context.Context, id string, mutate func(PT) error) (T, error) {
	var zero T

	resolved, isLocal, err := r.resolve(ctx, id)
	if err != nil {
		return zero, err
	}

	if isLocal {
		return r.updateLocal(ctx, resolved, mutate)
	}

	if !r.remote.Capabilities().Has(remote.CapUpdate) {
		return zero, fmt.Errorf("update on %s: %w", r.name, remote.ErrUnsupported)
	}

	doc, err := r.getRemote(ctx, resolved)
	if err != nil {
		return zero, err
	}
	if err = r.apply(&doc, resolved, mutate); err != nil {
		return zero, err
	}

	_, err = withTimeout(ctx, r.opts.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.remote.Set(ctx, resolved, doc)
	})
	if err != nil {
		return zero, fmt.Errorf("failed to update %s/%s: %w", r.name, resolved, err)
	}

	return doc, nil
}

func (r *Repository[T, PT]) apply(doc *T, id string, mutate func(PT) error) error {
	if err := mutate(PT(doc)); err != nil {
		return err
	}
	PT(doc).SetID(id)
	if err := Validate(PT(doc)); err != nil {
		return err
	}
	PT(doc).Stamp(r.clock())
	return nil
}

func (r *Repository[T, PT]) updateLocal(ctx context.Context, id string, mutate func(PT) error) (T, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.loadLocal(ctx)
	if err != nil {
		return zero, err
	}

	idx := indexOf[T, PT](docs, id)
	if idx < 0 {
		return zero, fmt.Errorf("%s/%s: %w", r.name, id, ErrNotFound)
	}

	doc := docs[idx]
	if err = r.apply(&doc, id, mutate); err != nil {
		return zero, err
	}
	docs[idx] = doc

	if err = r.saveLocal(ctx, docs); err != nil {
		return zero, err
	}
	return doc, nil
}

// Delete removes the record from whichever tier owns its id.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	resolved, isLocal, err := r.resolve(ctx, id)
	if err != nil {
		return err
	}

	if isLocal {
		removed, err := r.removeLocal(ctx, resolved)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s/%s: %w", r.name, resolved, ErrNotFound)
		}
		return r.local.Dequeue(ctx, r.name, resolved)
	}

	if !r.remote.Capabilities().Has(remote.CapDelete) {
		return fmt.Errorf("delete on %s: %w", r.name, remote.ErrUnsupported)
	}

	_, err = withTimeout(ctx, r.opts.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.remote.Delete(ctx, resolved)
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", r.name, resolved, err)
	}
	return nil
}

// resolve maps id to the tier that owns it. A local id that was already
// flushed resolves to its canonical remote id.
func (r *Repository[T, PT]) resolve(ctx context.Context, id string) (resolved string, isLocal bool, err error) {
	if util.IsLocalID(id) {
		remoteID, ok, err := r.local.Alias(ctx, r.name, id)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return id, true, nil
		}
		id = remoteID
	}

	if r.remote == nil {
		return "", false, fmt.Errorf("%s: %w", r.name, remote.ErrNotConfigured)
	}
	return id, false, nil
}

// KnownIDs returns id followed by the local ids the record carried before it
// was flushed, so references stored before the sync still match.
func (r *Repository[T, PT]) KnownIDs(ctx context.Context, id string) ([]string, error) {
	if util.IsLocalID(id) {
		return []string{id}, nil
	}

	locals, err := r.local.LocalIDs(ctx, r.name, id)
	if err != nil {
		return nil, err
	}
	return append([]string{id}, locals...), nil
}

func (r *Repository[T, PT]) getRemote(ctx context.Context, id string) (T, error) {
	return withTimeout(ctx, r.opts.Timeout, func(ctx context.Context) (T, error) {
		return r.remote.Get(ctx, id)
	})
}

func (r *Repository[T, PT]) getLocal(ctx context.Context, id string) (T, error) {
	var zero T

	docs, err := r.snapshotLocal(ctx)
	if err != nil {
		return zero, err
	}

	idx := indexOf[T, PT](docs, id)
	if idx < 0 {
		return zero, fmt.Errorf("%s/%s: %w", r.name, id, ErrNotFound)
	}
	return docs[idx], nil
}

func (r *Repository[T, PT]) removeLocal(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.loadLocal(ctx)
	if err != nil {
		return false, err
	}

	idx := indexOf[T, PT](docs, id)
	if idx < 0 {
		return false, nil
	}

	docs = append(docs[:idx], docs[idx+1:]...)
	return true, r.saveLocal(ctx, docs)
}

func indexOf[T any, PT Record[T]](docs []T, id string) int {
	for i := range docs {
		if PT(&docs[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func (r *Repository[T, PT]) snapshotLocal(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocal(ctx)
}

// loadLocal must be called with r.mu held.
func (r *Repository[T, PT]) loadLocal(ctx context.Context) ([]T, error) {
	raw, ok, err := r.local.Get(ctx, r.blobKey())
	if err != nil || !ok {
		return nil, err
	}

	var docs []T
	if err = json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, fmt.Errorf("failed to decode local %s: %w", r.name, err)
	}
	return docs, nil
}

// saveLocal must be called with r.mu held.
func (r *Repository[T, PT]) saveLocal(ctx context.Context, docs []T) error {
	if docs == nil {
		docs = []T{}
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to encode local %s: %w", r.name, err)
	}
	return r.local.Set(ctx, r.blobKey(), string(raw))
}

// Flush pushes queued local records to the remote store. Each flushed record
// is removed locally and its local id is aliased to the canonical remote id,
// so later updates and deletes through the old id reach the remote record.
func (r *Repository[T, PT]) Flush(ctx context.Context) (int, error) {
	if r.remote == nil {
		return 0, nil
	}

	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	pending, err := r.local.Pending(ctx, r.name, flushBatchSize)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, p := range pending {
		doc, err := r.getLocal(ctx, p.LocalID)
		if errors.Is(err, ErrNotFound) {
			// Deleted before it could be synced.
			if err = r.local.Dequeue(ctx, r.name, p.LocalID); err != nil {
				return synced, err
			}
			continue
		}
		if err != nil {
			return synced, err
		}

		PT(&doc).SetID("")
		remoteID, err := withTimeout(ctx, r.opts.Timeout, func(ctx context.Context) (string, error) {
			return r.remote.Create(ctx, doc)
		})
		if err != nil {
			log.Warn().Err(err).Str("collection", r.name).Str("local_id", p.LocalID).
				Int("attempts", p.Attempts+1).Msg("failed to sync local record")
			if markErr := r.local.MarkAttempt(ctx, p.ID, err.Error()); markErr != nil {
				return synced, markErr
			}
			continue
		}

		if err = r.local.SetAlias(ctx, r.name, p.LocalID, remoteID); err != nil {
			log.Error().Err(err).Str("collection", r.name).Str("local_id", p.LocalID).
				Str("remote_id", remoteID).Msg("failed to save id alias")
		}
		if _, err = r.removeLocal(ctx, p.LocalID); err != nil {
			return synced, err
		}
		if err = r.local.Dequeue(ctx, r.name, p.LocalID); err != nil {
			return synced, err
		}

		log.Info().Str("collection", r.name).Str("local_id", p.LocalID).
			Str("remote_id", remoteID).Msg("local record synced")
		synced++
	}

	return synced, nil
}

// withTimeout runs fn and gives up after d even if fn ignores its context.
func withTimeout[V any](ctx context.Context, d time.Duration, fn func(context.Context) (V, error)) (V, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		value V
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
