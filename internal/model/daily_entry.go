package model

import (
	"time"
)

type EntryKind string

const (
	EntryKindIncome  EntryKind = "entrada"
	EntryKindExpense EntryKind = "saida"
)

// DailyEntry is a line of the daily cash book (lançamento diário).
type DailyEntry struct {
	Base
	Date        time.Time `firestore:"data" json:"data" validate:"required"`
	Description string    `firestore:"descricao" json:"descricao" validate:"required"`
	Kind        EntryKind `firestore:"tipo" json:"tipo" validate:"required,oneof=entrada saida"`
	Amount      float64   `firestore:"valor" json:"valor" validate:"gt=0"`
	Category    string    `firestore:"categoria,omitempty" json:"categoria,omitempty"`
}

// Signed returns the amount with the sign of its kind.
func (e DailyEntry) Signed() float64 {
	if e.Kind == EntryKindExpense {
		return -e.Amount
	}
	return e.Amount
}

func (e *DailyEntry) RestoreServerFields(prev *DailyEntry) {
	e.Base = prev.Base
}
