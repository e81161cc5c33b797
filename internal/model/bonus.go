package model

// Bonus is a productivity bonus (prêmio de produtividade) granted to a collaborator.
type Bonus struct {
	Base
	CollaboratorID   string  `firestore:"colaboradorId" json:"colaboradorId" validate:"required"`
	CollaboratorName string  `firestore:"colaboradorNome" json:"colaboradorNome" validate:"required"`
	Value            float64 `firestore:"valor" json:"valor" validate:"gt=0"`
	ReferenceMonth   string  `firestore:"mesReferencia" json:"mesReferencia" validate:"required,datetime=2006-01"`
	Description      string  `firestore:"descricao,omitempty" json:"descricao,omitempty"`
}

func (b *Bonus) RestoreServerFields(prev *Bonus) {
	b.Base = prev.Base
}
