package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, env *testEnv, userID, title string) model.Notification {
	t.Helper()

	n, err := env.notifications.Create(context.Background(), model.Notification{
		UserID:   userID,
		Type:     model.NotificationTypeSystem,
		Priority: model.NotificationPriorityMedium,
		Title:    title,
		Message:  title + " message",
	})
	require.NoError(t, err)
	return n
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/v1/notifications", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	req.Header.Set(authorizationHeaderKey, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, env.send(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	req.Header.Set(authorizationHeaderKey, "Basic "+env.token(t, "u1", model.UserRoleOperator))
	assert.Equal(t, http.StatusUnauthorized, env.send(req).Code)

	// The query parameter is only accepted on streams.
	w = env.request(t, http.MethodGet, "/v1/notifications?access_token="+env.token(t, "u1", model.UserRoleOperator), nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/v1/notifications", nil, "u1", model.UserRoleOperator)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.server.checks.scheduled("u1"))
}

func TestCreateNotification(t *testing.T) {
	env := newTestEnv(t)

	body := createNotificationRequest{
		UserID:  "u2",
		Title:   "Manutenção programada",
		Message: "O sistema ficará indisponível no domingo.",
	}

	w := env.request(t, http.MethodPost, "/v1/notifications", body, "u1", model.UserRoleOperator)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body.Type = model.NotificationTypeDocumentExpired
	w = env.request(t, http.MethodPost, "/v1/notifications", body, "admin", model.UserRoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body.Type = ""
	w = env.request(t, http.MethodPost, "/v1/notifications", body, "admin", model.UserRoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Notification](t, w)
	assert.Equal(t, model.NotificationTypeSystem, created.Type)
	assert.Equal(t, model.NotificationPriorityMedium, created.Priority)

	w = env.request(t, http.MethodGet, "/v1/notifications", nil, "u2", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.Notification](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestNotificationLifecycle(t *testing.T) {
	env := newTestEnv(t)

	first := seedNotification(t, env, "u1", "Primeira")
	seedNotification(t, env, "u1", "Segunda")
	seedNotification(t, env, "u2", "Outro usuário")

	w := env.request(t, http.MethodPatch, "/v1/notifications/"+first.ID+"/read", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[model.Notification](t, w).Read)

	w = env.request(t, http.MethodGet, "/v1/notifications?read=false", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	unread := decode[[]model.Notification](t, w)
	require.Len(t, unread, 1)
	assert.Equal(t, "Segunda", unread[0].Title)

	w = env.request(t, http.MethodGet, "/v1/notifications/unread-count", nil, "u1", model.UserRoleOperator)
	assert.Equal(t, 1, decode[map[string]int](t, w)["count"])

	w = env.request(t, http.MethodGet, "/v1/notifications/stats", nil, "u1", model.UserRoleOperator)
	stats := decode[model.NotificationStats](t, w)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Unread)

	// Another user's notification does not exist for u2.
	w = env.request(t, http.MethodDelete, "/v1/notifications/"+first.ID, nil, "u2", model.UserRoleOperator)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodDelete, "/v1/notifications/read", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[map[string]int](t, w)["deleted"])

	w = env.request(t, http.MethodPatch, "/v1/notifications/read-all", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[map[string]int](t, w)["updated"])

	w = env.request(t, http.MethodGet, "/v1/notifications?type=desconhecido", nil, "u1", model.UserRoleOperator)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationSettings(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/v1/notifications/settings", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[model.NotificationSettings](t, w)
	assert.Equal(t, model.DefaultDaysBeforeExpiry, settings.DaysBeforeExpiry)
	assert.Equal(t, model.DefaultDailyCheckTime, settings.DailyCheckTime)

	settings.DailyCheckTime = "25:99"
	w = env.request(t, http.MethodPut, "/v1/notifications/settings", settings, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusBadRequest, w.Code)
	violations := decode[FailedValidationResponse](t, w)
	require.Len(t, violations.FieldViolations, 1)
	assert.Equal(t, "dailyCheckTime", violations.FieldViolations[0].Field)

	settings.DailyCheckTime = "07:30"
	settings.DaysBeforeExpiry = 15
	w = env.request(t, http.MethodPut, "/v1/notifications/settings", settings, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 15, decode[model.NotificationSettings](t, w).DaysBeforeExpiry)
}

func TestRunNotificationCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.server.svc.Documents.Create(ctx, model.Document{
		CollaboratorID:   "c1",
		CollaboratorName: "Ana Souza",
		Kind:             "ASO",
		ValidUntil:       time.Now().AddDate(0, 0, -2),
	}, nil)
	require.NoError(t, err)

	w := env.request(t, http.MethodPost, "/v1/notifications/check", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Created int `json:"created"`
		Summary struct {
			DocumentsExpired int `json:"documentsExpired"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Summary.DocumentsExpired)

	// The alert was recorded on the document, so a second run is quiet.
	w = env.request(t, http.MethodPost, "/v1/notifications/check", nil, "u1", model.UserRoleOperator)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Created)

	w = env.request(t, http.MethodPost, "/v1/notifications/cleanup", nil, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[map[string]int](t, w)["deleted"])
}

func readEvent(t *testing.T, reader *bufio.Reader) (eventType string, data string) {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestStreamNotifications(t *testing.T) {
	env := newTestEnv(t)
	seedNotification(t, env, "u1", "Primeira")

	httpServer := httptest.NewServer(env.server.router)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := httpServer.URL + "/v1/notifications/stream?access_token=" + env.token(t, "u1", model.UserRoleOperator)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	eventType, data := readEvent(t, reader)
	assert.Equal(t, sseEventSnapshot, eventType)
	var snapshot []model.Notification
	require.NoError(t, json.Unmarshal([]byte(data), &snapshot))
	require.Len(t, snapshot, 1)

	seedNotification(t, env, "u1", "Segunda")

	_, data = readEvent(t, reader)
	require.NoError(t, json.Unmarshal([]byte(data), &snapshot))
	require.Len(t, snapshot, 2)
	assert.Equal(t, "Segunda", snapshot[0].Title)
}

func TestStreamUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	seedNotification(t, env, "u1", "Primeira")

	httpServer := httptest.NewServer(env.server.router)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpServer.URL+"/v1/notifications/unread-count/stream", nil)
	require.NoError(t, err)
	req.Header.Set(authorizationHeaderKey, "Bearer "+env.token(t, "u1", model.UserRoleOperator))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	eventType, data := readEvent(t, reader)
	assert.Equal(t, sseEventUnreadCount, eventType)
	assert.Equal(t, "1", data)

	seedNotification(t, env, "u1", "Segunda")
	_, data = readEvent(t, reader)
	assert.Equal(t, "2", data)
}
