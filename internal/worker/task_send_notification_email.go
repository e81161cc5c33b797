package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/rs/zerolog/log"
)

// PayloadSendNotificationEmail contain all data of the task that we want to store in Redis.
type PayloadSendNotificationEmail struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
}

func notificationEmailTaskID(notificationID string) string {
	return "email:" + notificationID
}

func (distributor *RedisTaskDistributor) DistributeTaskSendNotificationEmail(
	ctx context.Context,
	payload *PayloadSendNotificationEmail,
	opts ...asynq.Option,
) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskSendNotificationEmail, jsonPayload, opts...)
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Info().Str("type", task.Type()).Bytes("payload", task.Payload()).Str("queue", info.Queue).Int("max_retry", info.MaxRetry).Msg("task enqueued")

	return nil
}

func (processor *RedisTaskProcessor) ProcessTaskSendNotificationEmail(
	ctx context.Context,
	task *asynq.Task,
) error {
	var payload PayloadSendNotificationEmail
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	n, err := processor.notifications.Get(ctx, payload.UserID, payload.NotificationID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return fmt.Errorf("notification %s no longer exists: %w", payload.NotificationID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n.EmailSent {
		return nil
	}

	user, err := processor.users.GetUser(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return fmt.Errorf("user %s not found: %w", payload.UserID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address: %w", payload.UserID, asynq.SkipRetry)
	}

	if err = processor.mailer.SendNotificationEmail(ctx, user.Email, n); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}

	if err = processor.notifications.MarkEmailSent(ctx, n.ID); err != nil {
		log.Error().Err(err).Str("notification_id", n.ID).Msg("email sent but failed to flag the notification")
	}

	log.Info().Str("type", task.Type()).Str("notification_id", n.ID).
		Str("email", user.Email).Msg("task processed")

	return nil
}

// NotificationEmailQueue queues and cancels the email copies of notifications.
type NotificationEmailQueue struct {
	distributor TaskDistributor
	inspector   TaskInspector
}

func NewNotificationEmailQueue(distributor TaskDistributor, inspector TaskInspector) *NotificationEmailQueue {
	return &NotificationEmailQueue{
		distributor: distributor,
		inspector:   inspector,
	}
}

func (q *NotificationEmailQueue) DispatchNotificationEmail(ctx context.Context, notificationID, userID string) error {
	return q.distributor.DistributeTaskSendNotificationEmail(ctx,
		&PayloadSendNotificationEmail{NotificationID: notificationID, UserID: userID},
		asynq.TaskID(notificationEmailTaskID(notificationID)),
		asynq.MaxRetry(5),
		asynq.Queue(QueueDefault),
	)
}

// CancelNotificationEmail drops the email of a deleted notification if it
// has not been sent yet.
func (q *NotificationEmailQueue) CancelNotificationEmail(ctx context.Context, notificationID string) error {
	err := q.inspector.DeleteTask(ctx, QueueDefault, notificationEmailTaskID(notificationID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}
