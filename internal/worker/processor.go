package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/katatrina/backoffice-BE/internal/mailer"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/rs/zerolog/log"
)

/*
 This file contains code that will pick up the tasks from the Redis queue and process them.
*/

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// NotificationStore is the part of the notification service the worker needs.
type NotificationStore interface {
	Get(ctx context.Context, userID, id string) (model.Notification, error)
	MarkEmailSent(ctx context.Context, id string) error
}

type UserDirectory interface {
	GetUser(ctx context.Context, uid string) (model.User, error)
}

type TaskProcessor interface {
	Start() error
	Shutdown()
}

type RedisTaskProcessor struct {
	server        *asynq.Server
	mailer        mailer.EmailSender
	notifications NotificationStore
	users         UserDirectory
}

func NewRedisTaskProcessor(
	redisOpt asynq.RedisClientOpt,
	mailer mailer.EmailSender,
	notifications NotificationStore,
	users UserDirectory,
) TaskProcessor {
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				QueueCritical: 10,
				QueueDefault:  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).
					Bytes("payload", task.Payload()).Msg("process task failed")
			}),
			Logger: NewLogger(),
		},
	)

	return &RedisTaskProcessor{
		server:        server,
		mailer:        mailer,
		notifications: notifications,
		users:         users,
	}
}

// Start registers the task handlers for the mux, attaches the mux to the asynq server, and starts the server.
func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskSendNotificationEmail, processor.ProcessTaskSendNotificationEmail)

	return processor.server.Start(mux)
}

func (processor *RedisTaskProcessor) Shutdown() {
	processor.server.Shutdown()
}
