package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
	"github.com/katatrina/backoffice-BE/api"
	"github.com/katatrina/backoffice-BE/internal/checker"
	"github.com/katatrina/backoffice-BE/internal/event"
	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/localstore"
	"github.com/katatrina/backoffice-BE/internal/mailer"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/notification"
	"github.com/katatrina/backoffice-BE/internal/records"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/katatrina/backoffice-BE/internal/storage"
	"github.com/katatrina/backoffice-BE/internal/token"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/katatrina/backoffice-BE/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configurations
	config, err := util.LoadConfig("./app.env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config file 😣")
	}
	log.Info().Msg("configurations loaded successfully ✅")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := localstore.Open(config.LocalStorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store 😣")
	}
	defer local.Close()
	log.Info().Str("path", config.LocalStorePath).Msg("local store opened ✅")

	// Firebase is optional: without it every record stays on this machine.
	var (
		firestoreClient *firestore.Client
		verifier        token.Verifier
	)
	if config.RemoteConfigured() {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: config.FirebaseProjectID},
			option.WithCredentialsFile(config.FirebaseCredentialsFile))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize firebase app 😣")
		}

		firestoreClient, err = app.Firestore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create firestore client 😣")
		}
		defer firestoreClient.Close()

		authClient, err := app.Auth(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create firebase auth client 😣")
		}
		verifier = token.NewFirebaseVerifier(authClient)
		log.Info().Str("project_id", config.FirebaseProjectID).Msg("connected to firebase ✅")
	} else {
		maker, err := token.NewJWTMaker(config.TokenSecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create token maker 😣")
		}
		verifier = maker
		log.Warn().Msg("firebase is not configured, records are kept in the local store only ⚠️")
	}

	// Redis carries live updates between instances and the email queue.
	var (
		redisClient *redis.Client
		bus         event.Bus
	)
	if config.RedisServerAddress != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: config.RedisServerAddress,
		})
		defer redisClient.Close()

		if err = redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis 😣")
		}
		bus = event.NewRedisBus(redisClient)
		log.Info().Msg("connected to redis ✅")
	} else {
		bus = event.NewLocalBus()
	}
	defer bus.Close()

	notifications := notification.NewService(
		notificationCollection[model.Notification](firestoreClient, notification.CollectionNotifications),
		notificationCollection[model.NotificationSettings](firestoreClient, notification.CollectionSettings),
		bus,
	)

	var fileStore storage.FileStore = storage.UnconfiguredStore{}
	if config.CloudinaryURL != "" {
		if fileStore, err = storage.NewCloudinaryStore(config.CloudinaryURL); err != nil {
			log.Fatal().Err(err).Msg("failed to create cloudinary store 😣")
		}
		log.Info().Msg("Cloudinary store created successfully ✅")
	}

	timeouts := records.Timeouts{
		Remote:          config.RemoteTimeout,
		Upload:          config.UploadTimeout,
		FinancialUpload: config.FinancialUploadTimeout,
	}
	svc := api.Services{
		Notifications: notifications,
		Collaborators: records.NewCollaboratorService(collection[model.Collaborator](firestoreClient, records.CollectionCollaborators), local, timeouts),
		Documents:     records.NewDocumentService(collection[model.Document](firestoreClient, records.CollectionDocuments), local, fileStore, timeouts),
		Bonuses:       records.NewBonusService(collection[model.Bonus](firestoreClient, records.CollectionBonuses), local, timeouts),
		Bulletins:     records.NewBulletinService(collection[model.Bulletin](firestoreClient, records.CollectionBulletins), local, timeouts),
		DailyEntries:  records.NewDailyEntryService(collection[model.DailyEntry](firestoreClient, records.CollectionDailyEntries), local, timeouts),
		Financial:     records.NewFinancialService(collection[model.FinancialTransaction](firestoreClient, records.CollectionFinancialTransactions), local, fileStore, timeouts),
		Users:         records.NewUserService(collection[model.User](firestoreClient, records.CollectionUsers), timeouts),
	}

	if config.LiveUpdateMode == util.LiveUpdateModePoll {
		svc.Feed = notification.NewPollFeed(notifications, config.LivePollInterval)
	} else {
		svc.Feed = notification.NewPushFeed(notifications, bus)
	}

	if config.GmailSMTPUsername != "" && redisClient != nil {
		processor, distributor := runEmailWorker(config, notifications, svc.Users)
		defer processor.Shutdown()
		defer distributor.Close()
	}

	svc.Reconciler, err = fallback.NewReconciler(config.SyncInterval,
		svc.Collaborators.Repository(),
		svc.Documents.Repository(),
		svc.Bonuses.Repository(),
		svc.Bulletins.Repository(),
		svc.DailyEntries.Repository(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sync reconciler 😣")
	}
	if err = svc.Reconciler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start sync reconciler 😣")
	}
	defer svc.Reconciler.Stop()
	log.Info().Dur("interval", config.SyncInterval).Msg("sync reconciler started ✅")

	svc.Checker, err = checker.New(notifications, svc.Documents, svc.Bulletins, svc.Bonuses, checker.Options{
		DedupWindow: config.AlertDedupWindow,
		Retention:   config.NotificationRetention,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create notification checker 😣")
	}
	svc.Checker.Start()
	defer svc.Checker.Stop()
	log.Info().Msg("notification checker started ✅")

	runHTTPServer(ctx, config, verifier, svc)
}

// collection returns the Firestore collection, or nil when Firebase is not
// configured so that the repositories run in local-only mode.
func collection[T any, PT remote.Ptr[T]](client *firestore.Client, name string) remote.Collection[T] {
	if client == nil {
		return nil
	}
	return remote.NewFirestoreCollection[T, PT](client, name)
}

// notificationCollection falls back to an in-process collection: notifications
// have no local tier and are lost on restart without Firebase.
func notificationCollection[T any, PT remote.Ptr[T]](client *firestore.Client, name string) remote.Collection[T] {
	if client == nil {
		return remote.NewMemoryCollection[T, PT](name)
	}
	return remote.NewFirestoreCollection[T, PT](client, name)
}

func runEmailWorker(config util.Config, notifications *notification.Service, users worker.UserDirectory) (worker.TaskProcessor, worker.TaskDistributor) {
	mailService, err := mailer.NewGmailSender(config.GmailSMTPUsername, config.GmailSMTPPassword, config.FrontendURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer service 😣")
	}

	redisOpt := asynq.RedisClientOpt{Addr: config.RedisServerAddress}
	distributor := worker.NewTaskDistributor(redisOpt)
	inspector := worker.NewTaskInspector(redisOpt)
	notifications.SetEmailDispatcher(worker.NewNotificationEmailQueue(distributor, inspector))

	processor := worker.NewRedisTaskProcessor(redisOpt, mailService, notifications, users)
	if err = processor.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start task processor 😣")
	}
	log.Info().Msg("email task processor started ✅")

	return processor, distributor
}

func runHTTPServer(ctx context.Context, config util.Config, verifier token.Verifier, svc api.Services) {
	server, err := api.NewServer(config, verifier, svc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create HTTP server 😣")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(config.HTTPServerAddress)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start HTTP server 😣")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down HTTP server gracefully")
		}
	}
}
