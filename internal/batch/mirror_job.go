package batch

import (
	"context"
	"fmt"

	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/metrics"
)

const mirrorJobName = "address-quantity-sync"

type mirrorSyncer interface {
	Sync(ctx context.Context) (int64, error)
}

// MirrorJobParams configure the order address quantity sync job.
type MirrorJobParams struct {
	Logger     *logger.Logger
	Propagator mirrorSyncer
	Metrics    *metrics.BatchJobMetrics
}

// NewMirrorJob builds the batch job that pushes purchase quantities onto
// order addresses. Register it after the reconcile job so the sync reads
// repaired values.
func NewMirrorJob(params MirrorJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Propagator == nil {
		return nil, fmt.Errorf("propagator required")
	}
	return &mirrorJob{
		logg:       params.Logger,
		propagator: params.Propagator,
		metrics:    params.Metrics,
	}, nil
}

type mirrorJob struct {
	logg       *logger.Logger
	propagator mirrorSyncer
	metrics    *metrics.BatchJobMetrics
}

func (j *mirrorJob) Name() string { return mirrorJobName }

func (j *mirrorJob) Run(ctx context.Context) error {
	affected, err := j.propagator.Sync(ctx)
	if err != nil {
		return fmt.Errorf("address quantity sync: %w", err)
	}
	j.metrics.AddRows(mirrorJobName, "updated", int(affected))
	return nil
}
