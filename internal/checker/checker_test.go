package checker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/katatrina/backoffice-BE/internal/localstore"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/notification"
	"github.com/katatrina/backoffice-BE/internal/records"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "gestor-1"

type fakeDocuments struct {
	mu   sync.Mutex
	docs []model.Document
	err  error
}

func (f *fakeDocuments) ListDocuments(context.Context) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Document(nil), f.docs...), nil
}

func (f *fakeDocuments) MarkAlertSent(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].ID == id {
			f.docs[i].AlertSent = true
			f.docs[i].LastAlertAt = &at
			return nil
		}
	}
	return remote.ErrNotFound
}

type fakeBulletins struct {
	bulletins []model.Bulletin
	err       error
}

func (f *fakeBulletins) ListBulletins(context.Context) ([]model.Bulletin, error) {
	return f.bulletins, f.err
}

type fakeBonuses struct {
	bonuses []model.Bonus
}

func (f *fakeBonuses) ListBonusesSince(_ context.Context, since time.Time) ([]model.Bonus, error) {
	var recent []model.Bonus
	for _, b := range f.bonuses {
		if !b.CreatedAt.Before(since) {
			recent = append(recent, b)
		}
	}
	return recent, nil
}

func (f *fakeBonuses) KnownIDs(_ context.Context, id string) ([]string, error) {
	return []string{id}, nil
}

type checkerEnv struct {
	checker   *Checker
	service   *notification.Service
	documents *fakeDocuments
	bulletins *fakeBulletins
	bonuses   *fakeBonuses
	now       time.Time
}

func newCheckerEnv(t *testing.T) *checkerEnv {
	t.Helper()

	env := &checkerEnv{
		documents: &fakeDocuments{},
		bulletins: &fakeBulletins{},
		bonuses:   &fakeBonuses{},
		now:       time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	}

	env.service = notification.NewService(
		remote.NewMemoryCollection[model.Notification](notification.CollectionNotifications),
		remote.NewMemoryCollection[model.NotificationSettings](notification.CollectionSettings),
		nil,
	)
	env.service.SetClock(func() time.Time { return env.now })

	c, err := New(env.service, env.documents, env.bulletins, env.bonuses, Options{})
	require.NoError(t, err)
	c.SetClock(func() time.Time { return env.now })
	t.Cleanup(func() { c.Stop() })
	env.checker = c

	return env
}

func (env *checkerEnv) notifications(t *testing.T) []model.Notification {
	t.Helper()

	list, err := env.service.ListByUser(context.Background(), testUser, notification.Filter{})
	require.NoError(t, err)
	return list
}

func document(id string, validUntil time.Time) model.Document {
	doc := model.Document{
		CollaboratorID:   "colab-" + id,
		CollaboratorName: "Colaborador " + id,
		Kind:             "ASO",
		ValidUntil:       validUntil,
	}
	doc.ID = id
	return doc
}

func TestRunAllDocumentScenario(t *testing.T) {
	env := newCheckerEnv(t)
	env.documents.docs = []model.Document{
		document("expired", env.now.AddDate(0, 0, -5)),
		document("expiring", env.now.AddDate(0, 0, 3)),
		document("valid", env.now.AddDate(0, 0, 60)),
	}

	summary := env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 1, summary.DocumentsExpired)
	assert.Equal(t, 1, summary.DocumentsExpiring)

	list := env.notifications(t)
	require.Len(t, list, 2)

	byEntity := map[string]model.Notification{}
	for _, n := range list {
		require.NotNil(t, n.Metadata)
		byEntity[n.Metadata.EntityID] = n
	}
	assert.Equal(t, model.NotificationTypeDocumentExpired, byEntity["expired"].Type)
	assert.Equal(t, model.NotificationPriorityUrgent, byEntity["expired"].Priority)
	assert.Equal(t, model.NotificationTypeDocumentExpiring, byEntity["expiring"].Type)
	assert.Equal(t, model.NotificationPriorityUrgent, byEntity["expiring"].Priority)
	assert.NotContains(t, byEntity, "valid")

	assert.True(t, env.documents.docs[0].AlertSent)
	require.NotNil(t, env.documents.docs[0].LastAlertAt)
	assert.Nil(t, env.documents.docs[2].LastAlertAt)

	summary = env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 0, summary.Total())
	assert.Len(t, env.notifications(t), 2)
}

func TestDocumentDedupWindow(t *testing.T) {
	env := newCheckerEnv(t)
	env.documents.docs = []model.Document{document("doc", env.now.AddDate(0, 0, 6))}

	env.checker.RunAll(context.Background(), testUser)
	assert.Len(t, env.notifications(t), 1)

	env.now = env.now.Add(23 * time.Hour)
	env.checker.RunAll(context.Background(), testUser)
	assert.Len(t, env.notifications(t), 1)

	env.now = env.now.Add(2 * time.Hour)
	env.checker.RunAll(context.Background(), testUser)
	assert.Len(t, env.notifications(t), 2)
}

func TestDocumentPriorityDerivation(t *testing.T) {
	cases := []struct {
		name     string
		offset   time.Duration
		expected model.NotificationPriority
		created  bool
	}{
		{"two days", 2 * 24 * time.Hour, model.NotificationPriorityUrgent, true},
		{"five days", 5 * 24 * time.Hour, model.NotificationPriorityHigh, true},
		{"ten days", 10 * 24 * time.Hour, "", false},
		{"expired", -24 * time.Hour, model.NotificationPriorityUrgent, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newCheckerEnv(t)
			env.documents.docs = []model.Document{document("doc", env.now.Add(tc.offset))}

			env.checker.RunAll(context.Background(), testUser)

			list := env.notifications(t)
			if !tc.created {
				assert.Empty(t, list)
				return
			}
			require.Len(t, list, 1)
			assert.Equal(t, tc.expected, list[0].Priority)
		})
	}
}

func TestLeadTimeFollowsSettings(t *testing.T) {
	env := newCheckerEnv(t)
	ctx := context.Background()

	settings := model.DefaultNotificationSettings(testUser)
	settings.DaysBeforeExpiry = 15
	_, err := env.service.UpdateSettings(ctx, testUser, settings)
	require.NoError(t, err)

	env.documents.docs = []model.Document{document("doc", env.now.AddDate(0, 0, 10))}
	env.checker.RunAll(ctx, testUser)

	list := env.notifications(t)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationPriorityMedium, list[0].Priority)
	require.NotNil(t, list[0].Metadata.DaysRemaining)
	assert.Equal(t, 10, *list[0].Metadata.DaysRemaining)
}

func bulletin(id string, status model.BulletinStatus, due time.Time) model.Bulletin {
	b := model.Bulletin{
		Number:   "BM-" + id,
		Contract: "CT-2025",
		Value:    15000,
		DueDate:  due,
		Status:   status,
	}
	b.ID = id
	return b
}

func TestBulletinScan(t *testing.T) {
	env := newCheckerEnv(t)
	env.bulletins.bulletins = []model.Bulletin{
		bulletin("pending-far", model.BulletinStatusPending, env.now.AddDate(0, 1, 0)),
		bulletin("approved-soon", model.BulletinStatusApproved, env.now.AddDate(0, 0, 4)),
		bulletin("issued-soon", model.BulletinStatusIssued, env.now.AddDate(0, 0, 2)),
		bulletin("approved-far", model.BulletinStatusApproved, env.now.AddDate(0, 0, 20)),
	}

	summary := env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 1, summary.BulletinsPending)
	assert.Equal(t, 1, summary.BulletinsExpiring)

	// Pending bulletins are reported on every run.
	summary = env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 1, summary.BulletinsPending)

	pending := model.NotificationTypeBulletinPending
	list, err := env.service.ListByUser(context.Background(), testUser, notification.Filter{Type: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "/boletins-medicao", list[0].Link)
}

func TestBonusScanSkipsAlreadyNotified(t *testing.T) {
	env := newCheckerEnv(t)

	recent := model.Bonus{CollaboratorID: "c1", CollaboratorName: "Ana", Value: 800, ReferenceMonth: "2025-05"}
	recent.ID = "bonus-recent"
	recent.CreatedAt = env.now.AddDate(0, 0, -2)
	old := model.Bonus{CollaboratorID: "c2", CollaboratorName: "Bruno", Value: 600, ReferenceMonth: "2025-04"}
	old.ID = "bonus-old"
	old.CreatedAt = env.now.AddDate(0, 0, -20)
	env.bonuses.bonuses = []model.Bonus{recent, old}

	summary := env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 1, summary.BonusesIssued)

	summary = env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 0, summary.BonusesIssued)

	list, err := env.service.ListBonusNotifications(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bonus-recent", list[0].Metadata.EntityID)
}

func TestBonusScanAfterSync(t *testing.T) {
	ctx := context.Background()
	env := newCheckerEnv(t)
	env.now = time.Now()

	local, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	coll := remote.NewMemoryCollection[model.Bonus](records.CollectionBonuses)
	coll.SetFailure(errors.New("offline"))
	bonuses := records.NewBonusService(coll, local, records.Timeouts{Remote: 50 * time.Millisecond})

	c, err := New(env.service, env.documents, env.bulletins, bonuses, Options{})
	require.NoError(t, err)
	c.SetClock(func() time.Time { return env.now })
	t.Cleanup(func() { c.Stop() })

	created, err := bonuses.Create(ctx, model.Bonus{
		CollaboratorID: "c1", CollaboratorName: "Ana", Value: 800, ReferenceMonth: "2025-05",
	})
	require.NoError(t, err)
	require.True(t, util.IsLocalID(created.ID))

	assert.Equal(t, 1, c.RunAll(ctx, testUser).BonusesIssued)

	coll.SetFailure(nil)
	synced, err := bonuses.Repository().Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, synced)

	list, err := bonuses.ListBonusesSince(ctx, env.now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, util.IsLocalID(list[0].ID))

	assert.Equal(t, 0, c.RunAll(ctx, testUser).BonusesIssued)

	notified, err := env.service.ListBonusNotifications(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, notified, 1)
	assert.Equal(t, created.ID, notified[0].Metadata.EntityID)
}

func TestFailingScanDoesNotStopOthers(t *testing.T) {
	env := newCheckerEnv(t)
	env.bulletins.err = errors.New("bulletins unavailable")
	env.documents.docs = []model.Document{document("expired", env.now.AddDate(0, 0, -1))}

	summary := env.checker.RunAll(context.Background(), testUser)
	assert.Equal(t, 1, summary.DocumentsExpired)
	assert.Equal(t, 0, summary.BulletinsPending)
}

func TestCleanupOldNotifications(t *testing.T) {
	env := newCheckerEnv(t)
	ctx := context.Background()

	old, err := env.service.Create(ctx, model.Notification{
		UserID: testUser, Type: model.NotificationTypeSystem, Priority: model.NotificationPriorityLow,
		Title: "Antiga", Message: "m",
	})
	require.NoError(t, err)
	_, err = env.service.MarkRead(ctx, testUser, old.ID)
	require.NoError(t, err)

	env.now = env.now.Add(31 * 24 * time.Hour)
	deleted, err := env.checker.CleanupOldNotifications(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Empty(t, env.notifications(t))
}

func TestStartPeriodicRunsImmediately(t *testing.T) {
	env := newCheckerEnv(t)
	env.documents.docs = []model.Document{document("expired", env.now.AddDate(0, 0, -1))}
	env.checker.Start()

	cancel, err := env.checker.StartPeriodic(testUser, time.Hour)
	require.NoError(t, err)
	defer cancel()

	assert.Eventually(t, func() bool {
		list, err := env.service.ListByUser(context.Background(), testUser, notification.Filter{})
		return err == nil && len(list) == 1
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	cancel()
}

func TestStartDailyRejectsInvalidTime(t *testing.T) {
	env := newCheckerEnv(t)
	ctx := context.Background()

	checkTime, err := env.checker.DailyCheckTime(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "09:00", checkTime)

	cancel, err := env.checker.StartDaily(testUser, checkTime)
	require.NoError(t, err)
	cancel()

	_, err = env.checker.StartDaily(testUser, "25:00")
	assert.Error(t, err)

	hour, minute, err := parseTimeOfDay("07:30")
	require.NoError(t, err)
	assert.Equal(t, uint(7), hour)
	assert.Equal(t, uint(30), minute)

	_, _, err = parseTimeOfDay("7h30")
	assert.Error(t, err)
	_, _, err = parseTimeOfDay("24:00")
	assert.Error(t, err)
}
