package model

import (
	"time"
)

type BulletinStatus string

const (
	BulletinStatusPending  BulletinStatus = "pendente"
	BulletinStatusApproved BulletinStatus = "aprovado"
	BulletinStatusIssued   BulletinStatus = "emitido"
)

// Bulletin is a measurement bulletin (boletim de medição) for a contract period.
type Bulletin struct {
	Base
	Number      string         `firestore:"numero" json:"numero" validate:"required"`
	Contract    string         `firestore:"contrato" json:"contrato" validate:"required"`
	PeriodStart time.Time      `firestore:"periodoInicio" json:"periodoInicio" validate:"required"`
	PeriodEnd   time.Time      `firestore:"periodoFim" json:"periodoFim" validate:"required,gtefield=PeriodStart"`
	Value       float64        `firestore:"valor" json:"valor" validate:"gte=0"`
	DueDate     time.Time      `firestore:"dataVencimento" json:"dataVencimento" validate:"required"`
	Status      BulletinStatus `firestore:"status" json:"status" validate:"required,oneof=pendente aprovado emitido"`
}

func (b *Bulletin) RestoreServerFields(prev *Bulletin) {
	b.Base = prev.Base
}
