package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/katatrina/backoffice-BE/internal/event"
	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/rs/zerolog/log"
)

const (
	CollectionNotifications = "notificacoes"
	CollectionSettings      = "configuracoes_notificacoes"

	// LiveSnapshotSize is how many of the newest notifications a live subscription delivers.
	LiveSnapshotSize = 50
)

// EmailDispatcher queues the email copy of a notification.
type EmailDispatcher interface {
	DispatchNotificationEmail(ctx context.Context, notificationID, userID string) error
	CancelNotificationEmail(ctx context.Context, notificationID string) error
}

// Filter narrows ListByUser. Nil fields do not filter.
type Filter struct {
	Type     *model.NotificationType
	Priority *model.NotificationPriority
	Read     *bool
	// From and To bound CreatedAt. They are applied after the fetch, so
	// Limit counts notifications outside the range too.
	From  *time.Time
	To    *time.Time
	Limit int
}

type Service struct {
	notifications remote.Collection[model.Notification]
	settings      remote.Collection[model.NotificationSettings]
	bus           event.Bus
	email         EmailDispatcher
	clock         func() time.Time
}

// NewService builds the notification service. bus may be nil, in which case
// no change events are published.
func NewService(
	notifications remote.Collection[model.Notification],
	settings remote.Collection[model.NotificationSettings],
	bus event.Bus,
) *Service {
	return &Service{
		notifications: notifications,
		settings:      settings,
		bus:           bus,
		clock:         time.Now,
	}
}

// SetEmailDispatcher enables email copies of new notifications.
func (s *Service) SetEmailDispatcher(dispatcher EmailDispatcher) {
	s.email = dispatcher
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Service) prepare(n model.Notification) (model.Notification, error) {
	n.ID = ""
	n.Read = false
	n.ReadAt = nil
	n.EmailSent = false
	n.CreatedAt = s.clock()

	if err := fallback.Validate(&n); err != nil {
		return n, err
	}
	return n, nil
}

// Create stores a new unread notification and returns it with its id.
func (s *Service) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	n, err := s.prepare(n)
	if err != nil {
		return n, err
	}

	id, err := s.notifications.Create(ctx, n)
	if err != nil {
		return n, fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = id

	log.Info().Str("user_id", n.UserID).Str("type", string(n.Type)).
		Str("notification_id", id).Msg("notification created")

	s.publish(ctx, n.UserID)
	s.dispatchEmail(ctx, n)
	return n, nil
}

// CreateBatch stores every notification or none of them.
func (s *Service) CreateBatch(ctx context.Context, list []model.Notification) ([]model.Notification, error) {
	if len(list) == 0 {
		return nil, nil
	}
	if !s.notifications.Capabilities().Has(remote.CapBatch) {
		return nil, fmt.Errorf("batch create: %w", remote.ErrUnsupported)
	}
	if len(list) > remote.MaxBatchWrites {
		return nil, fmt.Errorf("cannot create more than %d notifications at once", remote.MaxBatchWrites)
	}

	writes := make([]remote.Write[model.Notification], 0, len(list))
	prepared := make([]model.Notification, 0, len(list))
	for _, n := range list {
		n, err := s.prepare(n)
		if err != nil {
			return nil, err
		}
		prepared = append(prepared, n)
		writes = append(writes, remote.Write[model.Notification]{Kind: remote.WriteCreate, Doc: n})
	}

	ids, err := s.notifications.Batch(ctx, writes)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	users := make(map[string]struct{})
	for i := range prepared {
		prepared[i].ID = ids[i]
		users[prepared[i].UserID] = struct{}{}
	}
	for userID := range users {
		s.publish(ctx, userID)
	}
	for _, n := range prepared {
		s.dispatchEmail(ctx, n)
	}

	return prepared, nil
}

// ListByUser returns the user's notifications, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, filter Filter) ([]model.Notification, error) {
	q := remote.Query{OrderBy: "createdAt", Desc: true, Limit: filter.Limit}.
		Where("userId", remote.OpEqual, userID)
	if filter.Type != nil {
		q = q.Where("type", remote.OpEqual, string(*filter.Type))
	}
	if filter.Priority != nil {
		q = q.Where("priority", remote.OpEqual, string(*filter.Priority))
	}
	if filter.Read != nil {
		q = q.Where("read", remote.OpEqual, *filter.Read)
	}

	list, err := s.notifications.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	if filter.From == nil && filter.To == nil {
		return list, nil
	}

	kept := list[:0]
	for _, n := range list {
		if filter.From != nil && n.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && n.CreatedAt.After(*filter.To) {
			continue
		}
		kept = append(kept, n)
	}
	return kept, nil
}

// Get returns one of the user's notifications. Notifications of other users
// are reported as not found.
func (s *Service) Get(ctx context.Context, userID, id string) (model.Notification, error) {
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return n, err
	}
	if n.UserID != userID {
		return model.Notification{}, fmt.Errorf("notification %s: %w", id, remote.ErrNotFound)
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) (model.Notification, error) {
	n, err := s.Get(ctx, userID, id)
	if err != nil {
		return n, err
	}
	if n.Read {
		return n, nil
	}

	now := s.clock()
	n.Read = true
	n.ReadAt = &now
	if err = s.notifications.Set(ctx, id, n); err != nil {
		return n, fmt.Errorf("failed to mark notification as read: %w", err)
	}

	s.publish(ctx, userID)
	return n, nil
}

// MarkAllRead marks every unread notification of the user as read and
// returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread := false
	list, err := s.ListByUser(ctx, userID, Filter{Read: &unread})
	if err != nil {
		return 0, err
	}

	now := s.clock()
	writes := make([]remote.Write[model.Notification], 0, len(list))
	for _, n := range list {
		n.Read = true
		n.ReadAt = &now
		writes = append(writes, remote.Write[model.Notification]{Kind: remote.WriteSet, ID: n.ID, Doc: n})
	}

	if err = s.write(ctx, writes); err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	if len(writes) > 0 {
		s.publish(ctx, userID)
	}
	return len(writes), nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if s.email != nil {
		if err := s.email.CancelNotificationEmail(ctx, id); err != nil {
			log.Warn().Err(err).Str("notification_id", id).Msg("failed to cancel notification email")
		}
	}

	s.publish(ctx, userID)
	return nil
}

// DeleteAllRead removes every read notification of the user, leaving unread ones.
func (s *Service) DeleteAllRead(ctx context.Context, userID string) (int, error) {
	return s.deleteRead(ctx, userID, nil)
}

// DeleteReadOlderThan removes read notifications created before cutoff.
func (s *Service) DeleteReadOlderThan(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	return s.deleteRead(ctx, userID, &cutoff)
}

func (s *Service) deleteRead(ctx context.Context, userID string, before *time.Time) (int, error) {
	read := true
	list, err := s.ListByUser(ctx, userID, Filter{Read: &read})
	if err != nil {
		return 0, err
	}

	var writes []remote.Write[model.Notification]
	for _, n := range list {
		if before != nil && !n.CreatedAt.Before(*before) {
			continue
		}
		writes = append(writes, remote.Write[model.Notification]{Kind: remote.WriteDelete, ID: n.ID})
	}

	if err = s.write(ctx, writes); err != nil {
		return 0, fmt.Errorf("failed to delete read notifications: %w", err)
	}
	if len(writes) > 0 {
		s.publish(ctx, userID)
	}
	return len(writes), nil
}

// write applies writes in batches when the backend supports it and one by
// one otherwise.
func (s *Service) write(ctx context.Context, writes []remote.Write[model.Notification]) error {
	if len(writes) == 0 {
		return nil
	}

	if s.notifications.Capabilities().Has(remote.CapBatch) {
		for start := 0; start < len(writes); start += remote.MaxBatchWrites {
			end := min(start+remote.MaxBatchWrites, len(writes))
			if _, err := s.notifications.Batch(ctx, writes[start:end]); err != nil {
				return err
			}
		}
		return nil
	}

	for _, w := range writes {
		var err error
		switch w.Kind {
		case remote.WriteSet:
			err = s.notifications.Set(ctx, w.ID, w.Doc)
		case remote.WriteDelete:
			err = s.notifications.Delete(ctx, w.ID)
		case remote.WriteCreate:
			_, err = s.notifications.Create(ctx, w.Doc)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MarkEmailSent records that the email copy of a notification went out.
func (s *Service) MarkEmailSent(ctx context.Context, id string) error {
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.EmailSent {
		return nil
	}

	n.EmailSent = true
	if err = s.notifications.Set(ctx, id, n); err != nil {
		return fmt.Errorf("failed to mark email as sent: %w", err)
	}
	return nil
}

// GetStats scans every notification of the user.
func (s *Service) GetStats(ctx context.Context, userID string) (model.NotificationStats, error) {
	stats := model.NotificationStats{
		ByType:     make(map[model.NotificationType]int),
		ByPriority: make(map[model.NotificationPriority]int),
	}

	list, err := s.ListByUser(ctx, userID, Filter{})
	if err != nil {
		return stats, err
	}

	for _, n := range list {
		stats.Total++
		if !n.Read {
			stats.Unread++
		}
		stats.ByType[n.Type]++
		stats.ByPriority[n.Priority]++
	}
	return stats, nil
}

// UnreadCount returns the number of unread notifications of the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	unread := false
	list, err := s.ListByUser(ctx, userID, Filter{Read: &unread})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// ListBonusNotifications returns the user's bonus-issued notifications.
func (s *Service) ListBonusNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	t := model.NotificationTypeBonusIssued
	return s.ListByUser(ctx, userID, Filter{Type: &t})
}

// HasEntityNotification reports whether the user already has a notification
// of type t pointing at entityID.
func (s *Service) HasEntityNotification(ctx context.Context, userID string, t model.NotificationType, entityID string) (bool, error) {
	q := remote.Query{Limit: 1}.
		Where("userId", remote.OpEqual, userID).
		Where("type", remote.OpEqual, string(t)).
		Where("metadata.entityId", remote.OpEqual, entityID)

	list, err := s.notifications.List(ctx, q)
	if err != nil {
		return false, fmt.Errorf("failed to look up notifications of %s: %w", entityID, err)
	}
	return len(list) > 0, nil
}

// GetSettings returns the user's settings, storing the defaults on first access.
func (s *Service) GetSettings(ctx context.Context, userID string) (model.NotificationSettings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err == nil {
		settings.UserID = userID
		return settings, nil
	}
	if !errors.Is(err, remote.ErrNotFound) {
		return settings, fmt.Errorf("failed to get notification settings: %w", err)
	}

	settings = model.DefaultNotificationSettings(userID)
	settings.UpdatedAt = s.clock()
	if err = s.settings.Set(ctx, userID, settings); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to store default notification settings")
	}
	return settings, nil
}

// UpdateSettings replaces the user's settings.
func (s *Service) UpdateSettings(ctx context.Context, userID string, settings model.NotificationSettings) (model.NotificationSettings, error) {
	if settings.DaysBeforeExpiry <= 0 {
		return settings, &fallback.ValidationError{Field: "daysBeforeExpiry", Message: "daysBeforeExpiry must be greater than 0"}
	}
	if _, err := time.Parse("15:04", settings.DailyCheckTime); err != nil {
		return settings, &fallback.ValidationError{Field: "dailyCheckTime", Message: "dailyCheckTime must follow the format HH:MM"}
	}

	settings.UserID = userID
	settings.UpdatedAt = s.clock()
	if err := s.settings.Set(ctx, userID, settings); err != nil {
		return settings, fmt.Errorf("failed to update notification settings: %w", err)
	}
	return settings, nil
}

func (s *Service) publish(ctx context.Context, userID string) {
	if s.bus == nil {
		return
	}

	err := s.bus.Publish(ctx, event.Event{
		Topic: event.NotificationTopic(userID),
		Type:  event.EventTypeNotificationsChanged,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to publish notification change")
	}
}

func (s *Service) dispatchEmail(ctx context.Context, n model.Notification) {
	if s.email == nil {
		return
	}

	settings, err := s.GetSettings(ctx, n.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID).Msg("failed to load settings for notification email")
		return
	}
	if !settings.EmailWanted(n.Type) {
		return
	}

	if err = s.email.DispatchNotificationEmail(ctx, n.ID, n.UserID); err != nil {
		log.Error().Err(err).Str("notification_id", n.ID).Msg("failed to queue notification email")
	}
}
