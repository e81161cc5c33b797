package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/checker"
	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/notification"
	"github.com/katatrina/backoffice-BE/internal/records"
	"github.com/katatrina/backoffice-BE/internal/token"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/rs/zerolog/log"
)

// Services are the domain services the HTTP surface exposes.
type Services struct {
	Notifications *notification.Service
	Feed          *notification.Feed
	Checker       *checker.Checker
	Reconciler    *fallback.Reconciler

	Collaborators *records.CollaboratorService
	Documents     *records.DocumentService
	Bonuses       *records.BonusService
	Bulletins     *records.BulletinService
	DailyEntries  *records.DailyEntryService
	Financial     *records.FinancialService
	Users         *records.UserService
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     util.Config
	verifier   token.Verifier
	svc        Services
	checks     *checkSchedule
}

// NewServer creates a new HTTP server and set up routing.
func NewServer(config util.Config, verifier token.Verifier, svc Services) (*Server, error) {
	if verifier == nil {
		return nil, errors.New("token verifier is required")
	}
	if svc.Notifications == nil || svc.Feed == nil {
		return nil, errors.New("notification service and feed are required")
	}

	server := &Server{
		config:   config,
		verifier: verifier,
		svc:      svc,
		checks:   newCheckSchedule(svc.Checker, config.CheckerInterval),
	}

	server.setupRouter()
	return server, nil
}

// setupRouter configures the HTTP server routes.
func (server *Server) setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(authMiddleware(server.verifier), server.scheduleUserChecks())

	notificationGroup := v1.Group("/notifications")
	{
		notificationGroup.GET("", server.listNotifications)
		notificationGroup.POST("", requireRole(model.UserRoleAdmin), server.createNotification)
		notificationGroup.GET("stats", server.getNotificationStats)
		notificationGroup.GET("bonuses", server.listBonusNotifications)
		notificationGroup.GET("unread-count", server.getUnreadCount)
		notificationGroup.GET("stream", server.streamNotifications)
		notificationGroup.GET("unread-count/stream", server.streamUnreadCount)
		notificationGroup.PATCH("read-all", server.markAllNotificationsRead)
		notificationGroup.DELETE("read", server.deleteReadNotifications)

		notificationGroup.GET("settings", server.getNotificationSettings)
		notificationGroup.PUT("settings", server.updateNotificationSettings)

		notificationGroup.POST("check", server.runNotificationCheck)
		notificationGroup.POST("cleanup", server.cleanupNotifications)

		notificationGroup.GET(":id", server.getNotification)
		notificationGroup.PATCH(":id/read", server.markNotificationRead)
		notificationGroup.DELETE(":id", server.deleteNotification)
	}

	collaboratorGroup := v1.Group("/collaborators")
	{
		collaboratorGroup.GET("", server.listCollaborators)
		collaboratorGroup.GET(":id", server.getCollaborator)
		collaboratorGroup.POST("", requireRole(model.UserRoleManager), server.createCollaborator)
		collaboratorGroup.PATCH(":id", requireRole(model.UserRoleManager), server.updateCollaborator)
		collaboratorGroup.DELETE(":id", requireRole(model.UserRoleAdmin), server.deleteCollaborator)
	}

	documentGroup := v1.Group("/documents")
	{
		documentGroup.GET("", server.listDocuments)
		documentGroup.GET(":id", server.getDocument)
		documentGroup.POST("", server.createDocument)
		documentGroup.PATCH(":id", server.updateDocument)
		documentGroup.DELETE(":id", requireRole(model.UserRoleManager), server.deleteDocument)
	}

	bonusGroup := v1.Group("/bonuses")
	{
		bonusGroup.GET("", server.listBonuses)
		bonusGroup.GET(":id", server.getBonus)
		bonusGroup.POST("", requireRole(model.UserRoleManager), server.createBonus)
		bonusGroup.PATCH(":id", requireRole(model.UserRoleManager), server.updateBonus)
		bonusGroup.DELETE(":id", requireRole(model.UserRoleManager), server.deleteBonus)
	}

	bulletinGroup := v1.Group("/bulletins")
	{
		bulletinGroup.GET("", server.listBulletins)
		bulletinGroup.GET(":id", server.getBulletin)
		bulletinGroup.POST("", server.createBulletin)
		bulletinGroup.PATCH(":id", server.updateBulletin)
		bulletinGroup.DELETE(":id", requireRole(model.UserRoleManager), server.deleteBulletin)
	}

	dailyEntryGroup := v1.Group("/daily-entries")
	{
		dailyEntryGroup.GET("", server.listDailyEntries)
		dailyEntryGroup.GET("balance", server.getDailyBalance)
		dailyEntryGroup.GET(":id", server.getDailyEntry)
		dailyEntryGroup.POST("", server.createDailyEntry)
		dailyEntryGroup.PATCH(":id", server.updateDailyEntry)
		dailyEntryGroup.DELETE(":id", server.deleteDailyEntry)
	}

	financialGroup := v1.Group("/financial-transactions")
	financialGroup.Use(requireRole(model.UserRoleManager))
	{
		financialGroup.GET("", server.listFinancialTransactions)
		financialGroup.GET(":id", server.getFinancialTransaction)
		financialGroup.POST("", server.createFinancialTransaction)
		financialGroup.POST(":id/attachment", server.attachFinancialFile)
		financialGroup.PATCH(":id", server.updateFinancialTransaction)
		financialGroup.DELETE(":id", server.deleteFinancialTransaction)
	}

	userGroup := v1.Group("/users")
	{
		userGroup.GET("me", server.getMyProfile)
		userGroup.PUT("me", server.saveMyProfile)
		userGroup.GET("", requireRole(model.UserRoleAdmin), server.listUsers)
		userGroup.DELETE(":id", requireRole(model.UserRoleAdmin), server.deleteUser)
	}

	v1.POST("/sync/flush", server.flushLocalRecords)

	server.router = router
	return router
}

// Start runs the HTTP server on a specific address.
func (server *Server) Start(address string) error {
	server.httpServer = &http.Server{
		Addr:    address,
		Handler: server.router,
	}

	log.Info().Str("address", address).Msg("HTTP server started ✅")
	err := server.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown cancels the scheduled per-user checks and stops accepting requests.
func (server *Server) Shutdown(ctx context.Context) error {
	server.checks.cancelAll()

	if server.httpServer == nil {
		return nil
	}
	if err := server.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
