package model

import (
	"time"
)

type Collaborator struct {
	Base
	Name          string    `firestore:"nome" json:"nome" validate:"required,min=3"`
	CPF           string    `firestore:"cpf" json:"cpf" validate:"required,len=11,numeric"`
	Role          string    `firestore:"cargo" json:"cargo" validate:"required"`
	Department    string    `firestore:"departamento,omitempty" json:"departamento,omitempty"`
	Salary        float64   `firestore:"salario" json:"salario" validate:"gte=0"`
	AdmissionDate time.Time `firestore:"dataAdmissao" json:"dataAdmissao" validate:"required"`
	Active        bool      `firestore:"ativo" json:"ativo"`
}

// RestoreServerFields puts back the fields clients may not change.
func (c *Collaborator) RestoreServerFields(prev *Collaborator) {
	c.Base = prev.Base
}
