package model

import (
	"time"
)

// FinancialTransaction is a financial document. It only exists remotely.
type FinancialTransaction struct {
	Base
	Date          time.Time `firestore:"data" json:"data" validate:"required"`
	Description   string    `firestore:"descricao" json:"descricao" validate:"required"`
	Kind          EntryKind `firestore:"tipo" json:"tipo" validate:"required,oneof=entrada saida"`
	Amount        float64   `firestore:"valor" json:"valor" validate:"gt=0"`
	Category      string    `firestore:"categoria,omitempty" json:"categoria,omitempty"`
	AttachmentURL  string    `firestore:"anexoUrl,omitempty" json:"anexoUrl,omitempty"`
	AttachmentName string    `firestore:"anexoNome,omitempty" json:"anexoNome,omitempty"`
}

// RestoreServerFields keeps the attachment, which only changes through an upload.
func (t *FinancialTransaction) RestoreServerFields(prev *FinancialTransaction) {
	t.Base = prev.Base
	t.AttachmentURL = prev.AttachmentURL
	t.AttachmentName = prev.AttachmentName
}
