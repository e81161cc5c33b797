package notification

import (
	"context"
	"fmt"

	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/util"
)

const (
	LinkDocuments = "/documentacoes"
	LinkBulletins = "/boletins-medicao"
	LinkBonuses   = "/premios-produtividade"
)

// PriorityForDays maps the days left before a deadline to a priority.
// Anything already past its deadline is urgent.
func PriorityForDays(daysRemaining int) model.NotificationPriority {
	switch {
	case daysRemaining <= 3:
		return model.NotificationPriorityUrgent
	case daysRemaining <= 7:
		return model.NotificationPriorityHigh
	default:
		return model.NotificationPriorityMedium
	}
}

func documentLabel(doc model.Document) string {
	if doc.CollaboratorName == "" {
		return doc.Kind
	}
	return fmt.Sprintf("%s de %s", doc.Kind, doc.CollaboratorName)
}

func (s *Service) NotifyDocumentExpiring(ctx context.Context, userID string, doc model.Document, daysRemaining int) (model.Notification, error) {
	validUntil := doc.ValidUntil
	return s.Create(ctx, model.Notification{
		UserID:   userID,
		Type:     model.NotificationTypeDocumentExpiring,
		Priority: PriorityForDays(daysRemaining),
		Title:    "Documento próximo do vencimento",
		Message: fmt.Sprintf("%s vence em %d dia(s), em %s.",
			documentLabel(doc), daysRemaining, util.FormatDate(validUntil)),
		Link: LinkDocuments,
		Metadata: &model.NotificationMetadata{
			EntityID:      doc.ID,
			EntityName:    documentLabel(doc),
			Date:          &validUntil,
			DaysRemaining: util.IntPointer(daysRemaining),
		},
	})
}

func (s *Service) NotifyDocumentExpired(ctx context.Context, userID string, doc model.Document) (model.Notification, error) {
	validUntil := doc.ValidUntil
	return s.Create(ctx, model.Notification{
		UserID:   userID,
		Type:     model.NotificationTypeDocumentExpired,
		Priority: model.NotificationPriorityUrgent,
		Title:    "Documento vencido",
		Message: fmt.Sprintf("%s venceu em %s.",
			documentLabel(doc), util.FormatDate(validUntil)),
		Link: LinkDocuments,
		Metadata: &model.NotificationMetadata{
			EntityID:   doc.ID,
			EntityName: documentLabel(doc),
			Date:       &validUntil,
		},
	})
}

func (s *Service) NotifyBonusIssued(ctx context.Context, userID string, bonus model.Bonus) (model.Notification, error) {
	return s.Create(ctx, model.Notification{
		UserID:   userID,
		Type:     model.NotificationTypeBonusIssued,
		Priority: model.NotificationPriorityLow,
		Title:    "Prêmio de produtividade emitido",
		Message: fmt.Sprintf("Prêmio de %s emitido para %s (referência %s).",
			util.FormatBRL(bonus.Value), bonus.CollaboratorName, bonus.ReferenceMonth),
		Link: LinkBonuses,
		Metadata: &model.NotificationMetadata{
			EntityID:   bonus.ID,
			EntityName: bonus.CollaboratorName,
			Value:      util.Float64Pointer(bonus.Value),
		},
	})
}

func (s *Service) NotifyBulletinPending(ctx context.Context, userID string, bulletin model.Bulletin) (model.Notification, error) {
	dueDate := bulletin.DueDate
	return s.Create(ctx, model.Notification{
		UserID:   userID,
		Type:     model.NotificationTypeBulletinPending,
		Priority: model.NotificationPriorityMedium,
		Title:    "Boletim de medição pendente",
		Message: fmt.Sprintf("O boletim %s do contrato %s aguarda aprovação.",
			bulletin.Number, bulletin.Contract),
		Link: LinkBulletins,
		Metadata: &model.NotificationMetadata{
			EntityID:   bulletin.ID,
			EntityName: bulletin.Number,
			Date:       &dueDate,
			Value:      util.Float64Pointer(bulletin.Value),
		},
	})
}

func (s *Service) NotifyBulletinExpiring(ctx context.Context, userID string, bulletin model.Bulletin, daysRemaining int) (model.Notification, error) {
	dueDate := bulletin.DueDate
	return s.Create(ctx, model.Notification{
		UserID:   userID,
		Type:     model.NotificationTypeBulletinExpiring,
		Priority: PriorityForDays(daysRemaining),
		Title:    "Boletim de medição próximo do vencimento",
		Message: fmt.Sprintf("O boletim %s do contrato %s vence em %d dia(s), em %s.",
			bulletin.Number, bulletin.Contract, daysRemaining, util.FormatDate(dueDate)),
		Link: LinkBulletins,
		Metadata: &model.NotificationMetadata{
			EntityID:      bulletin.ID,
			EntityName:    bulletin.Number,
			Date:          &dueDate,
			DaysRemaining: util.IntPointer(daysRemaining),
			Value:         util.Float64Pointer(bulletin.Value),
		},
	})
}
