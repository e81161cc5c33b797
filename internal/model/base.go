package model

import (
	"time"
)

// Base holds the fields shared by every persisted record. The identifier is
// never written as a document field: remote stores keep it as the document
// key and the local store keeps it inside the JSON blob.
type Base struct {
	ID        string    `firestore:"-" json:"id"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
	CreatedBy string    `firestore:"createdBy,omitempty" json:"createdBy,omitempty"`
}

func (b *Base) GetID() string {
	return b.ID
}

func (b *Base) SetID(id string) {
	b.ID = id
}

// Stamp sets CreatedAt on first save and refreshes UpdatedAt.
func (b *Base) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
