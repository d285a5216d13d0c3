package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/jobs"
)

type fanoutDelivery interface {
	NotifyUsers(ctx context.Context, userIDs []string, msg models.NotificationMessage) (*models.FanoutResult, error)
	NotifyAllActive(ctx context.Context, msg models.NotificationMessage, exclude ...string) (*models.FanoutResult, error)
}

type fanoutJob struct {
	Message models.NotificationMessage
	Exclude []string
	// Targets is set on retries and holds only the users the previous attempt missed.
	Targets []string
}

// NotificationDispatcher moves fan-out off the request path onto a worker queue. Partially failed
// fan-outs are retried for the missed users only.
type NotificationDispatcher struct {
	delivery fanoutDelivery
	queue    *jobs.Queue[fanoutJob]
	logger   *zap.Logger
}

// NewNotificationDispatcher constructs a dispatcher. Call Start before use and Stop on shutdown.
func NewNotificationDispatcher(delivery fanoutDelivery, logger *zap.Logger, cfg jobs.Config) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	d := &NotificationDispatcher{delivery: delivery, logger: logger}
	d.queue = jobs.New[fanoutJob]("notifications", d.deliver, cfg)
	return d
}

// Start launches the workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop delivers whatever is already queued and waits for the workers.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// NotifyAllActive queues msg for every active user except exclude. The returned result is empty
// because delivery happens later; when the queue cannot take the job it is delivered inline.
func (d *NotificationDispatcher) NotifyAllActive(ctx context.Context, msg models.NotificationMessage, exclude ...string) (*models.FanoutResult, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	job := jobs.Job[fanoutJob]{ID: uuid.NewString(), Payload: fanoutJob{Message: msg, Exclude: exclude}}
	if err := d.queue.Enqueue(job); err != nil {
		d.logger.Warn("notification queue unavailable, delivering inline", zap.String("type", string(msg.Type)), zap.Error(err))
		return d.delivery.NotifyAllActive(ctx, msg, exclude...)
	}
	return &models.FanoutResult{Succeeded: []string{}, Failed: []models.FanoutFailure{}}, nil
}

func (d *NotificationDispatcher) deliver(ctx context.Context, job *jobs.Job[fanoutJob]) error {
	payload := job.Payload

	var (
		result *models.FanoutResult
		err    error
	)
	if payload.Targets != nil {
		result, err = d.delivery.NotifyUsers(ctx, payload.Targets, payload.Message)
	} else {
		result, err = d.delivery.NotifyAllActive(ctx, payload.Message, payload.Exclude...)
	}
	if err == nil {
		return nil
	}

	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status < 500 {
		d.logger.Error("notification rejected", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	if errors.Is(err, ErrFanoutIncomplete) && result != nil {
		missed := make([]string, 0, len(result.Failed))
		for _, failure := range result.Failed {
			missed = append(missed, failure.UserID)
		}
		job.Payload.Targets = missed
	}
	return err
}
