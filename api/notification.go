package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/notification"
)

const dateLayout = "2006-01-02"

type listNotificationsRequest struct {
	Type     string `form:"type"`
	Priority string `form:"priority"`
	Read     *bool  `form:"read"`
	From     string `form:"from"`
	To       string `form:"to"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (req *listNotificationsRequest) filter() (filter notification.Filter, violations []*FieldViolation) {
	filter.Read = req.Read
	filter.Limit = req.Limit

	if req.Type != "" {
		t := model.NotificationType(req.Type)
		if !t.Valid() {
			violations = append(violations, &FieldViolation{Field: "type", Description: "unknown notification type"})
		}
		filter.Type = &t
	}
	if req.Priority != "" {
		p := model.NotificationPriority(req.Priority)
		if !p.Valid() {
			violations = append(violations, &FieldViolation{Field: "priority", Description: "unknown notification priority"})
		}
		filter.Priority = &p
	}

	var err error
	if filter.From, err = parseDate(req.From, false); err != nil {
		violations = append(violations, &FieldViolation{Field: "from", Description: err.Error()})
	}
	if filter.To, err = parseDate(req.To, true); err != nil {
		violations = append(violations, &FieldViolation{Field: "to", Description: err.Error()})
	}

	return filter, violations
}

// parseDate reads a YYYY-MM-DD query value. With endOfDay the result is the
// last instant of that day.
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func (server *Server) listNotifications(ctx *gin.Context) {
	var req listNotificationsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	filter, violations := req.filter()
	if len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, failedValidationError(violations...))
		return
	}

	list, err := server.svc.Notifications.ListByUser(ctx, currentUser(ctx).UserID(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

type createNotificationRequest struct {
	UserID   string                     `json:"userId" binding:"required"`
	Type     model.NotificationType     `json:"type"`
	Priority model.NotificationPriority `json:"priority"`
	Title    string                     `json:"title" binding:"required"`
	Message  string                     `json:"message" binding:"required"`
	Link     string                     `json:"link"`
}

func (server *Server) createNotification(ctx *gin.Context) {
	var req createNotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	if req.Type == "" {
		req.Type = model.NotificationTypeSystem
	}
	if req.Type != model.NotificationTypeSystem && req.Type != model.NotificationTypeOther {
		ctx.JSON(http.StatusBadRequest, errorResponse(ErrManualNotificationType))
		return
	}
	if req.Priority == "" {
		req.Priority = model.NotificationPriorityMedium
	}

	created, err := server.svc.Notifications.Create(ctx, model.Notification{
		UserID:   req.UserID,
		Type:     req.Type,
		Priority: req.Priority,
		Title:    req.Title,
		Message:  req.Message,
		Link:     req.Link,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (server *Server) getNotification(ctx *gin.Context) {
	n, err := server.svc.Notifications.Get(ctx, currentUser(ctx).UserID(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, n)
}

func (server *Server) getNotificationStats(ctx *gin.Context) {
	stats, err := server.svc.Notifications.GetStats(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func (server *Server) listBonusNotifications(ctx *gin.Context) {
	list, err := server.svc.Notifications.ListBonusNotifications(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (server *Server) getUnreadCount(ctx *gin.Context) {
	count, err := server.svc.Notifications.UnreadCount(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"count": count})
}

func (server *Server) markNotificationRead(ctx *gin.Context) {
	n, err := server.svc.Notifications.MarkRead(ctx, currentUser(ctx).UserID(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, n)
}

func (server *Server) markAllNotificationsRead(ctx *gin.Context) {
	updated, err := server.svc.Notifications.MarkAllRead(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (server *Server) deleteNotification(ctx *gin.Context) {
	if err := server.svc.Notifications.Delete(ctx, currentUser(ctx).UserID(), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (server *Server) deleteReadNotifications(ctx *gin.Context) {
	deleted, err := server.svc.Notifications.DeleteAllRead(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (server *Server) getNotificationSettings(ctx *gin.Context) {
	settings, err := server.svc.Notifications.GetSettings(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, settings)
}

func (server *Server) updateNotificationSettings(ctx *gin.Context) {
	var req model.NotificationSettings
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	userID := currentUser(ctx).UserID()
	previous, err := server.svc.Notifications.GetSettings(ctx, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	settings, err := server.svc.Notifications.UpdateSettings(ctx, userID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if settings.DailyCheckTime != previous.DailyCheckTime {
		server.checks.rescheduleDaily(userID, settings.DailyCheckTime)
	}

	ctx.JSON(http.StatusOK, settings)
}

func (server *Server) runNotificationCheck(ctx *gin.Context) {
	if server.svc.Checker == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "notification checker is not running"})
		return
	}

	summary := server.svc.Checker.RunAll(ctx, currentUser(ctx).UserID())
	ctx.JSON(http.StatusOK, gin.H{
		"created": summary.Total(),
		"summary": summary,
	})
}

func (server *Server) cleanupNotifications(ctx *gin.Context) {
	if server.svc.Checker == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "notification checker is not running"})
		return
	}

	deleted, err := server.svc.Checker.CleanupOldNotifications(ctx, currentUser(ctx).UserID())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (server *Server) flushLocalRecords(ctx *gin.Context) {
	if server.svc.Reconciler == nil {
		ctx.JSON(http.StatusOK, gin.H{"synced": gin.H{}})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"synced": server.svc.Reconciler.FlushAll(ctx)})
}
