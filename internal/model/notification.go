package model

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeDocumentExpiring NotificationType = "documento_vencendo"
	NotificationTypeDocumentExpired  NotificationType = "documento_vencido"
	NotificationTypeBonusIssued      NotificationType = "premio_emitido"
	NotificationTypeBulletinPending  NotificationType = "boletim_pendente"
	NotificationTypeBulletinExpiring NotificationType = "boletim_vencendo"
	NotificationTypeSystem           NotificationType = "sistema"
	NotificationTypeOther            NotificationType = "outro"
)

var NotificationTypes = []NotificationType{
	NotificationTypeDocumentExpiring,
	NotificationTypeDocumentExpired,
	NotificationTypeBonusIssued,
	NotificationTypeBulletinPending,
	NotificationTypeBulletinExpiring,
	NotificationTypeSystem,
	NotificationTypeOther,
}

func (t NotificationType) Valid() bool {
	for _, v := range NotificationTypes {
		if v == t {
			return true
		}
	}
	return false
}

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "baixa"
	NotificationPriorityMedium NotificationPriority = "media"
	NotificationPriorityHigh   NotificationPriority = "alta"
	NotificationPriorityUrgent NotificationPriority = "urgente"
)

var NotificationPriorities = []NotificationPriority{
	NotificationPriorityLow,
	NotificationPriorityMedium,
	NotificationPriorityHigh,
	NotificationPriorityUrgent,
}

func (p NotificationPriority) Valid() bool {
	for _, v := range NotificationPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// NotificationMetadata points at the domain record that triggered a notification.
// The reference is weak: it is only used for lookups and navigation.
type NotificationMetadata struct {
	EntityID      string     `firestore:"entityId,omitempty" json:"entityId,omitempty"`
	EntityName    string     `firestore:"entityName,omitempty" json:"entityName,omitempty"`
	Date          *time.Time `firestore:"date,omitempty" json:"date,omitempty"`
	DaysRemaining *int       `firestore:"daysRemaining,omitempty" json:"daysRemaining,omitempty"`
	Value         *float64   `firestore:"value,omitempty" json:"value,omitempty"`
}

type Notification struct {
	ID        string                `firestore:"-" json:"id"`
	UserID    string                `firestore:"userId" json:"userId" validate:"required"`
	Type      NotificationType      `firestore:"type" json:"type" validate:"required,oneof=documento_vencendo documento_vencido premio_emitido boletim_pendente boletim_vencendo sistema outro"`
	Priority  NotificationPriority  `firestore:"priority" json:"priority" validate:"required,oneof=baixa media alta urgente"`
	Title     string                `firestore:"title" json:"title" validate:"required"`
	Message   string                `firestore:"message" json:"message" validate:"required"`
	Read      bool                  `firestore:"read" json:"read"`
	ReadAt    *time.Time            `firestore:"readAt,omitempty" json:"readAt,omitempty"`
	EmailSent bool                  `firestore:"emailSent" json:"emailSent"`
	Link      string                `firestore:"link,omitempty" json:"link,omitempty"`
	Metadata  *NotificationMetadata `firestore:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time             `firestore:"createdAt" json:"createdAt"`
}

func (n *Notification) GetID() string {
	return n.ID
}

func (n *Notification) SetID(id string) {
	n.ID = id
}

// NotificationStats is computed by scanning a user's full notification list.
type NotificationStats struct {
	Total      int                          `json:"total"`
	Unread     int                          `json:"unread"`
	ByType     map[NotificationType]int     `json:"byType"`
	ByPriority map[NotificationPriority]int `json:"byPriority"`
}
