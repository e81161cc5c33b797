package model

import (
	"time"
)

const (
	DefaultDaysBeforeExpiry = 7
	DefaultDailyCheckTime   = "09:00"
)

// NotificationSettings is stored per user, keyed by the user id.
type NotificationSettings struct {
	UserID                string    `firestore:"-" json:"userId"`
	EmailEnabled          bool      `firestore:"emailEnabled" json:"emailEnabled"`
	DocumentExpiringEmail bool      `firestore:"documentExpiringEmail" json:"documentExpiringEmail"`
	DocumentExpiredEmail  bool      `firestore:"documentExpiredEmail" json:"documentExpiredEmail"`
	BonusIssuedEmail      bool      `firestore:"bonusIssuedEmail" json:"bonusIssuedEmail"`
	BulletinPendingEmail  bool      `firestore:"bulletinPendingEmail" json:"bulletinPendingEmail"`
	DaysBeforeExpiry      int       `firestore:"daysBeforeExpiry" json:"daysBeforeExpiry"`
	DailyCheckTime        string    `firestore:"dailyCheckTime" json:"dailyCheckTime"`
	UpdatedAt             time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func (s *NotificationSettings) GetID() string {
	return s.UserID
}

func (s *NotificationSettings) SetID(id string) {
	s.UserID = id
}

func DefaultNotificationSettings(userID string) NotificationSettings {
	return NotificationSettings{
		UserID:                userID,
		EmailEnabled:          true,
		DocumentExpiringEmail: true,
		DocumentExpiredEmail:  true,
		BonusIssuedEmail:      true,
		BulletinPendingEmail:  true,
		DaysBeforeExpiry:      DefaultDaysBeforeExpiry,
		DailyCheckTime:        DefaultDailyCheckTime,
	}
}

// EmailWanted reports whether a notification of type t should also go out by email.
func (s NotificationSettings) EmailWanted(t NotificationType) bool {
	if !s.EmailEnabled {
		return false
	}

	switch t {
	case NotificationTypeDocumentExpiring:
		return s.DocumentExpiringEmail
	case NotificationTypeDocumentExpired:
		return s.DocumentExpiredEmail
	case NotificationTypeBonusIssued:
		return s.BonusIssuedEmail
	case NotificationTypeBulletinPending, NotificationTypeBulletinExpiring:
		return s.BulletinPendingEmail
	default:
		return false
	}
}
