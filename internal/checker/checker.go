package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	// AlertDedupWindow is the minimum time between two alerts about the same document.
	AlertDedupWindow = 24 * time.Hour
	// NotificationRetention is how long read notifications are kept.
	NotificationRetention = 30 * 24 * time.Hour
	DefaultInterval       = 60 * time.Minute

	bulletinDueWindowDays = 7
	bonusLookback         = 7 * 24 * time.Hour
	runTimeout            = 5 * time.Minute
)

// Notifier creates notifications and reads the user's settings.
type Notifier interface {
	GetSettings(ctx context.Context, userID string) (model.NotificationSettings, error)
	HasEntityNotification(ctx context.Context, userID string, t model.NotificationType, entityID string) (bool, error)
	DeleteReadOlderThan(ctx context.Context, userID string, cutoff time.Time) (int, error)

	NotifyDocumentExpiring(ctx context.Context, userID string, doc model.Document, daysRemaining int) (model.Notification, error)
	NotifyDocumentExpired(ctx context.Context, userID string, doc model.Document) (model.Notification, error)
	NotifyBonusIssued(ctx context.Context, userID string, bonus model.Bonus) (model.Notification, error)
	NotifyBulletinPending(ctx context.Context, userID string, bulletin model.Bulletin) (model.Notification, error)
	NotifyBulletinExpiring(ctx context.Context, userID string, bulletin model.Bulletin, daysRemaining int) (model.Notification, error)
}

type DocumentSource interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
	MarkAlertSent(ctx context.Context, id string, at time.Time) error
}

type BulletinSource interface {
	ListBulletins(ctx context.Context) ([]model.Bulletin, error)
}

type BonusSource interface {
	ListBonusesSince(ctx context.Context, since time.Time) ([]model.Bonus, error)
	// KnownIDs lists the ids a bonus had, including the local one it was
	// created under before being synced.
	KnownIDs(ctx context.Context, id string) ([]string, error)
}

type Options struct {
	// DedupWindow overrides AlertDedupWindow.
	DedupWindow time.Duration
	// Retention overrides NotificationRetention.
	Retention time.Duration
}

// Summary counts the notifications one run created.
type Summary struct {
	DocumentsExpired  int `json:"documentsExpired"`
	DocumentsExpiring int `json:"documentsExpiring"`
	BulletinsPending  int `json:"bulletinsPending"`
	BulletinsExpiring int `json:"bulletinsExpiring"`
	BonusesIssued     int `json:"bonusesIssued"`
}

func (s Summary) Total() int {
	return s.DocumentsExpired + s.DocumentsExpiring + s.BulletinsPending + s.BulletinsExpiring + s.BonusesIssued
}

// Checker scans documents, bulletins and bonuses and notifies the user about
// the ones that need attention.
type Checker struct {
	notifier  Notifier
	documents DocumentSource
	bulletins BulletinSource
	bonuses   BonusSource

	dedupWindow time.Duration
	retention   time.Duration
	clock       func() time.Time

	scheduler gocron.Scheduler
}

func New(notifier Notifier, documents DocumentSource, bulletins BulletinSource, bonuses BonusSource, opts Options) (*Checker, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if opts.DedupWindow <= 0 {
		opts.DedupWindow = AlertDedupWindow
	}
	if opts.Retention <= 0 {
		opts.Retention = NotificationRetention
	}

	return &Checker{
		notifier:    notifier,
		documents:   documents,
		bulletins:   bulletins,
		bonuses:     bonuses,
		dedupWindow: opts.DedupWindow,
		retention:   opts.Retention,
		clock:       time.Now,
		scheduler:   scheduler,
	}, nil
}

// SetClock replaces the time source, for tests.
func (c *Checker) SetClock(clock func() time.Time) {
	c.clock = clock
}

// Start starts running scheduled checks.
func (c *Checker) Start() {
	c.scheduler.Start()
}

// Stop stops scheduled checks. Runs in progress are not aborted.
func (c *Checker) Stop() error {
	return c.scheduler.Shutdown()
}

// RunAll runs every scan for the user in parallel. A failing scan is logged
// and does not stop the others.
func (c *Checker) RunAll(ctx context.Context, userID string) Summary {
	now := c.clock()

	settings, err := c.notifier.GetSettings(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load notification settings, using defaults")
		settings = model.DefaultNotificationSettings(userID)
	}

	var (
		summary Summary
		wg      sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		summary.DocumentsExpired, summary.DocumentsExpiring = c.checkDocuments(ctx, userID, settings, now)
	}()
	go func() {
		defer wg.Done()
		summary.BulletinsPending, summary.BulletinsExpiring = c.checkBulletins(ctx, userID, now)
	}()
	go func() {
		defer wg.Done()
		summary.BonusesIssued = c.checkBonuses(ctx, userID, now)
	}()
	wg.Wait()

	log.Info().Str("user_id", userID).Int("created", summary.Total()).Msg("notification check finished")
	return summary
}

// shouldAlert is the de-duplication guard: a document is alerted again only
// once the window has passed since its last alert.
func (c *Checker) shouldAlert(lastAlertAt *time.Time, now time.Time) bool {
	return lastAlertAt == nil || now.Sub(*lastAlertAt) > c.dedupWindow
}

func (c *Checker) checkDocuments(ctx context.Context, userID string, settings model.NotificationSettings, now time.Time) (expired, expiring int) {
	docs, err := c.documents.ListDocuments(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list documents")
		return
	}

	leadDays := settings.DaysBeforeExpiry
	if leadDays <= 0 {
		leadDays = model.DefaultDaysBeforeExpiry
	}

	for _, doc := range docs {
		if doc.ValidUntil.IsZero() || !c.shouldAlert(doc.LastAlertAt, now) {
			continue
		}

		if doc.ValidUntil.Before(now) && doc.ComputeStatus(now) == model.DocumentStatusExpired {
			if _, err = c.notifier.NotifyDocumentExpired(ctx, userID, doc); err != nil {
				log.Error().Err(err).Str("document_id", doc.ID).Msg("failed to notify expired document")
				continue
			}
			expired++
			c.markAlertSent(ctx, doc.ID, now)
			continue
		}

		days := util.DaysUntil(now, doc.ValidUntil)
		if days < 0 || days > leadDays {
			continue
		}
		if _, err = c.notifier.NotifyDocumentExpiring(ctx, userID, doc, days); err != nil {
			log.Error().Err(err).Str("document_id", doc.ID).Msg("failed to notify expiring document")
			continue
		}
		expiring++
		c.markAlertSent(ctx, doc.ID, now)
	}

	return
}

func (c *Checker) markAlertSent(ctx context.Context, documentID string, now time.Time) {
	if err := c.documents.MarkAlertSent(ctx, documentID, now); err != nil {
		log.Error().Err(err).Str("document_id", documentID).Msg("failed to mark document alert as sent")
	}
}

func (c *Checker) checkBulletins(ctx context.Context, userID string, now time.Time) (pending, expiring int) {
	bulletins, err := c.bulletins.ListBulletins(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list bulletins")
		return
	}

	for _, b := range bulletins {
		if b.Status == model.BulletinStatusPending {
			if _, err = c.notifier.NotifyBulletinPending(ctx, userID, b); err != nil {
				log.Error().Err(err).Str("bulletin_id", b.ID).Msg("failed to notify pending bulletin")
			} else {
				pending++
			}
		}

		if b.Status == model.BulletinStatusIssued || b.DueDate.IsZero() {
			continue
		}
		days := util.DaysUntil(now, b.DueDate)
		if days < 0 || days > bulletinDueWindowDays {
			continue
		}
		if _, err = c.notifier.NotifyBulletinExpiring(ctx, userID, b, days); err != nil {
			log.Error().Err(err).Str("bulletin_id", b.ID).Msg("failed to notify expiring bulletin")
			continue
		}
		expiring++
	}

	return
}

func (c *Checker) checkBonuses(ctx context.Context, userID string, now time.Time) (issued int) {
	bonuses, err := c.bonuses.ListBonusesSince(ctx, now.Add(-bonusLookback))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list bonuses")
		return
	}

	for _, bonus := range bonuses {
		exists, err := c.bonusNotified(ctx, userID, bonus.ID)
		if err != nil {
			log.Error().Err(err).Str("bonus_id", bonus.ID).Msg("failed to look up bonus notification")
			continue
		}
		if exists {
			continue
		}

		if _, err = c.notifier.NotifyBonusIssued(ctx, userID, bonus); err != nil {
			log.Error().Err(err).Str("bonus_id", bonus.ID).Msg("failed to notify issued bonus")
			continue
		}
		issued++
	}

	return
}

func (c *Checker) bonusNotified(ctx context.Context, userID, bonusID string) (bool, error) {
	ids, err := c.bonuses.KnownIDs(ctx, bonusID)
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		exists, err := c.notifier.HasEntityNotification(ctx, userID, model.NotificationTypeBonusIssued, id)
		if err != nil || exists {
			return exists, err
		}
	}
	return false, nil
}

// CleanupOldNotifications deletes the user's read notifications older than
// the retention period.
func (c *Checker) CleanupOldNotifications(ctx context.Context, userID string) (int, error) {
	deleted, err := c.notifier.DeleteReadOlderThan(ctx, userID, c.clock().Add(-c.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up notifications: %w", err)
	}

	log.Info().Str("user_id", userID).Int("deleted", deleted).Msg("old notifications cleaned up")
	return deleted, nil
}

// StartPeriodic runs the checks for the user now and then every interval.
// The returned func cancels future runs; a run in progress completes.
func (c *Checker) StartPeriodic(userID string, interval time.Duration) (func(), error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	job, err := c.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(
			func() {
				c.run(userID)
			},
		),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("periodic", userID),
	)
	if err != nil {
		return nil, err
	}

	return c.canceler(job), nil
}

// DailyCheckTime returns the time of day (HH:MM) of the user's daily check.
func (c *Checker) DailyCheckTime(ctx context.Context, userID string) (string, error) {
	settings, err := c.notifier.GetSettings(ctx, userID)
	if err != nil {
		return "", err
	}
	return settings.DailyCheckTime, nil
}

// StartDaily runs the checks and the retention cleanup for the user once a
// day at checkTime (HH:MM).
func (c *Checker) StartDaily(userID, checkTime string) (func(), error) {
	hour, minute, err := parseTimeOfDay(checkTime)
	if err != nil {
		return nil, err
	}

	job, err := c.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(
			func() {
				c.run(userID)

				ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
				defer cancel()
				if _, err := c.CleanupOldNotifications(ctx, userID); err != nil {
					log.Error().Err(err).Str("user_id", userID).Msg("daily cleanup failed")
				}
			},
		),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("daily", userID),
	)
	if err != nil {
		return nil, err
	}

	return c.canceler(job), nil
}

func (c *Checker) run(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	log.Info().Str("user_id", userID).Time("start_time", c.clock()).Msg("starting notification check")
	c.RunAll(ctx, userID)
}

func (c *Checker) canceler(job gocron.Job) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := c.scheduler.RemoveJob(job.ID()); err != nil {
				log.Warn().Err(err).Str("job_id", job.ID().String()).Msg("failed to remove check job")
			}
		})
	}
}

func parseTimeOfDay(value string) (hour, minute uint, err error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	return uint(h), uint(m), nil
}
