package model

import (
	"time"
)

type DocumentStatus string

const (
	DocumentStatusValid    DocumentStatus = "valido"
	DocumentStatusExpiring DocumentStatus = "vencendo"
	DocumentStatusExpired  DocumentStatus = "vencido"
)

// DocumentExpiringThreshold is how close to its validity date a document is
// listed as "vencendo".
const DocumentExpiringThreshold = 30 * 24 * time.Hour

// Document is a collaborator's compliance document (ASO, NR training, CNH...).
type Document struct {
	Base
	CollaboratorID   string         `firestore:"colaboradorId" json:"colaboradorId" validate:"required"`
	CollaboratorName string         `firestore:"colaboradorNome" json:"colaboradorNome"`
	Kind             string         `firestore:"tipo" json:"tipo" validate:"required"`
	Description      string         `firestore:"descricao,omitempty" json:"descricao,omitempty"`
	ValidUntil       time.Time      `firestore:"dataValidade" json:"dataValidade" validate:"required"`
	FileURL          string         `firestore:"arquivoUrl,omitempty" json:"arquivoUrl,omitempty"`
	FileName         string         `firestore:"arquivoNome,omitempty" json:"arquivoNome,omitempty"`
	Status           DocumentStatus `firestore:"status" json:"status"`
	AlertSent        bool           `firestore:"alertaEnviado" json:"alertaEnviado"`
	LastAlertAt      *time.Time     `firestore:"ultimoAlerta,omitempty" json:"ultimoAlerta,omitempty"`
}

// RestoreServerFields puts back the stored file and the alert bookkeeping,
// which only the server writes.
func (d *Document) RestoreServerFields(prev *Document) {
	d.Base = prev.Base
	d.FileURL = prev.FileURL
	d.FileName = prev.FileName
	d.AlertSent = prev.AlertSent
	d.LastAlertAt = prev.LastAlertAt
}

// ComputeStatus derives the expiry status of the document at now.
func (d Document) ComputeStatus(now time.Time) DocumentStatus {
	switch {
	case d.ValidUntil.Before(now):
		return DocumentStatusExpired
	case d.ValidUntil.Sub(now) <= DocumentExpiringThreshold:
		return DocumentStatusExpiring
	default:
		return DocumentStatusValid
	}
}
