package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/m4ssya/warehouse-backend/pkg/logger"
	"github.com/m4ssya/warehouse-backend/pkg/metrics"
)

const salesRetentionDays = 365

type salesRetentionRepo interface {
	DeleteSoldBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SalesRetentionJobParams configure the sales retention job.
type SalesRetentionJobParams struct {
	Logger     *logger.Logger
	Repository salesRetentionRepo
	Metrics    *metrics.CronJobMetrics
	Retention  int
}

// NewSalesRetentionJob builds the job that purges sale records older than the
// configured retention window.
func NewSalesRetentionJob(params SalesRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = salesRetentionDays
	}
	return &salesRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

type salesRetentionJob struct {
	logg      *logger.Logger
	repo      salesRetentionRepo
	metrics   *metrics.CronJobMetrics
	retention int
	now       func() time.Time
}

func (j *salesRetentionJob) Name() string { return "sales-retention" }

func (j *salesRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteSoldBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sales retention: %w", err)
	}
	j.metrics.AddPurged(j.Name(), deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "sales retention cleanup complete")
	return nil
}
