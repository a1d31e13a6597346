package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/m4ssya/warehouse-backend/pkg/logger"
	"github.com/m4ssya/warehouse-backend/pkg/metrics"
)

const notificationRetentionDays = 30

type notificationCleanupRepo interface {
	DeleteAcknowledgedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams configure the notification cleanup job.
type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository notificationCleanupRepo
	Metrics    *metrics.CronJobMetrics
	Retention  int
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	repo      notificationCleanupRepo
	metrics   *metrics.CronJobMetrics
	retention int
	now       func() time.Time
}

// NewNotificationCleanupJob builds the job that drops acknowledged low-stock
// notifications past the retention window. Unread notifications are kept
// regardless of age.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Repository == nil:
		return nil, fmt.Errorf("notification repository required")
	}

	job := &notificationCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		metrics:   params.Metrics,
		retention: params.Retention,
		now:       time.Now,
	}
	if job.retention <= 0 {
		job.retention = notificationRetentionDays
	}
	return job, nil
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)
	deleted, err := j.repo.DeleteAcknowledgedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	j.metrics.AddPurged(j.Name(), deleted)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
