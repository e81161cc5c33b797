package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PendingSync is a locally-created record that has not reached the remote store yet.
type PendingSync struct {
	ID         int64  `db:"id"`
	Collection string `db:"collection"`
	LocalID    string `db:"local_id"`
	Attempts   int    `db:"attempts"`
	LastError  string `db:"last_error"`
	CreatedAt  int64  `db:"created_at"`
}

func (p PendingSync) CreatedTime() time.Time {
	return time.UnixMilli(p.CreatedAt)
}

// Enqueue records that localID in collection must be pushed to the remote store.
// Enqueueing the same record twice is a no-op.
func (s *Store) Enqueue(ctx context.Context, collection, localID string) error {
	const query = `
		INSERT INTO sync_queue (collection, local_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(collection, local_id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, collection, localID, s.clock().UnixMilli()); err != nil {
		return fmt.Errorf("enqueueing %s/%s: %w", collection, localID, err)
	}

	return nil
}

// Pending lists queued records of collection, oldest first.
func (s *Store) Pending(ctx context.Context, collection string, limit int) ([]PendingSync, error) {
	if limit <= 0 {
		limit = 100
	}

	var items []PendingSync
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, collection, local_id, attempts, last_error, created_at
		FROM sync_queue
		WHERE collection = ?
		ORDER BY created_at, id
		LIMIT ?`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending sync for %s: %w", collection, err)
	}

	return items, nil
}

// MarkAttempt records a failed flush attempt.
func (s *Store) MarkAttempt(ctx context.Context, id int64, lastError string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sync_queue SET attempts = attempts + 1, last_error = ? WHERE id = ?", lastError, id)
	if err != nil {
		return fmt.Errorf("marking sync attempt %d: %w", id, err)
	}

	return nil
}

// Dequeue removes localID of collection from the queue.
func (s *Store) Dequeue(ctx context.Context, collection, localID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM sync_queue WHERE collection = ? AND local_id = ?", collection, localID)
	if err != nil {
		return fmt.Errorf("dequeueing %s/%s: %w", collection, localID, err)
	}

	return nil
}

// SetAlias records the canonical remote id a local record was flushed to.
func (s *Store) SetAlias(ctx context.Context, collection, localID, remoteID string) error {
	const query = `
		INSERT INTO id_aliases (collection, local_id, remote_id, synced_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, local_id) DO UPDATE SET remote_id = excluded.remote_id, synced_at = excluded.synced_at`

	if _, err := s.db.ExecContext(ctx, query, collection, localID, remoteID, s.clock().UnixMilli()); err != nil {
		return fmt.Errorf("saving alias %s/%s: %w", collection, localID, err)
	}

	return nil
}

// Alias returns the remote id localID was flushed to, if any.
func (s *Store) Alias(ctx context.Context, collection, localID string) (remoteID string, ok bool, err error) {
	err = s.db.GetContext(ctx, &remoteID,
		"SELECT remote_id FROM id_aliases WHERE collection = ? AND local_id = ?", collection, localID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading alias %s/%s: %w", collection, localID, err)
	}

	return remoteID, true, nil
}

// LocalIDs returns the local ids that were flushed to remoteID.
func (s *Store) LocalIDs(ctx context.Context, collection, remoteID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT local_id FROM id_aliases WHERE collection = ? AND remote_id = ? ORDER BY synced_at", collection, remoteID)
	if err != nil {
		return nil, fmt.Errorf("reading aliases of %s/%s: %w", collection, remoteID, err)
	}

	return ids, nil
}
