package remote

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore limits a transaction to 500 writes.
const MaxBatchWrites = 500

// FirestoreCollection is a Collection backed by a Firestore collection.
// Timestamps are stored natively and come back as time.Time.
type FirestoreCollection[T any, PT Ptr[T]] struct {
	client *firestore.Client
	name   string
}

func NewFirestoreCollection[T any, PT Ptr[T]](client *firestore.Client, name string) *FirestoreCollection[T, PT] {
	return &FirestoreCollection[T, PT]{
		client: client,
		name:   name,
	}
}

func (c *FirestoreCollection[T, PT]) Name() string {
	return c.name
}

func (c *FirestoreCollection[T, PT]) Capabilities() Capability {
	return CapAll
}

func (c *FirestoreCollection[T, PT]) Create(ctx context.Context, doc T) (string, error) {
	ref, _, err := c.client.Collection(c.name).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", c.name, err)
	}

	return ref.ID, nil
}

func (c *FirestoreCollection[T, PT]) Get(ctx context.Context, id string) (T, error) {
	var doc T

	snap, err := c.client.Collection(c.name).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return doc, fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
		}
		return doc, fmt.Errorf("failed to get %s/%s: %w", c.name, id, err)
	}

	if err = snap.DataTo(&doc); err != nil {
		return doc, fmt.Errorf("failed to decode %s/%s: %w", c.name, id, err)
	}
	PT(&doc).SetID(snap.Ref.ID)

	return doc, nil
}

func (c *FirestoreCollection[T, PT]) List(ctx context.Context, q Query) ([]T, error) {
	query := c.client.Collection(c.name).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, string(f.Op), f.Value)
	}
	if q.OrderBy != "" {
		direction := firestore.Asc
		if q.Desc {
			direction = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, direction)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var docs []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
		}

		var doc T
		if err = snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", c.name, snap.Ref.ID, err)
		}
		PT(&doc).SetID(snap.Ref.ID)
		docs = append(docs, doc)
	}

	return docs, nil
}

func (c *FirestoreCollection[T, PT]) Set(ctx context.Context, id string, doc T) error {
	if _, err := c.client.Collection(c.name).Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", c.name, id, err)
	}

	return nil
}

func (c *FirestoreCollection[T, PT]) Delete(ctx context.Context, id string) error {
	if _, err := c.client.Collection(c.name).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.name, id, err)
	}

	return nil
}

// Batch runs the writes in a single transaction.
func (c *FirestoreCollection[T, PT]) Batch(ctx context.Context, writes []Write[T]) ([]string, error) {
	if len(writes) > MaxBatchWrites {
		return nil, fmt.Errorf("batch of %d writes exceeds the limit of %d", len(writes), MaxBatchWrites)
	}

	coll := c.client.Collection(c.name)

	// Refs are resolved up front so a retried transaction reuses the same ids.
	refs := make([]*firestore.DocumentRef, len(writes))
	for i, w := range writes {
		if w.Kind == WriteCreate {
			refs[i] = coll.NewDoc()
		} else {
			refs[i] = coll.Doc(w.ID)
		}
	}

	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for i, w := range writes {
			var err error
			switch w.Kind {
			case WriteCreate:
				err = tx.Create(refs[i], w.Doc)
			case WriteSet:
				err = tx.Set(refs[i], w.Doc)
			case WriteDelete:
				err = tx.Delete(refs[i])
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit batch on %s: %w", c.name, err)
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}

	return ids, nil
}
