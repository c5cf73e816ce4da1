package batch

import (
	"context"
	"fmt"

	"github.com/peacetifal/peacetifal-backend/internal/reconcile"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/metrics"
)

const reconcileJobName = "quantity-reconcile"

type quantityRunner interface {
	Run(ctx context.Context) (reconcile.Summary, error)
}

// ReconcileJobParams configure the quantity reconciliation job.
type ReconcileJobParams struct {
	Logger  *logger.Logger
	Engine  quantityRunner
	Metrics *metrics.BatchJobMetrics
}

// NewReconcileJob builds the batch job that repairs stale purchase quantities.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("reconcile engine required")
	}
	return &reconcileJob{
		logg:    params.Logger,
		engine:  params.Engine,
		metrics: params.Metrics,
	}, nil
}

type reconcileJob struct {
	logg    *logger.Logger
	engine  quantityRunner
	metrics *metrics.BatchJobMetrics
}

func (j *reconcileJob) Name() string { return reconcileJobName }

func (j *reconcileJob) Run(ctx context.Context) error {
	summary, err := j.engine.Run(ctx)

	j.metrics.AddRows(reconcileJobName, "updated", summary.Updated)
	j.metrics.AddRows(reconcileJobName, "skipped", summary.Skipped)
	j.metrics.AddRows(reconcileJobName, "errors", summary.Errors)

	if err != nil {
		return fmt.Errorf("quantity reconciliation: %w", err)
	}
	if summary.Errors > 0 {
		return fmt.Errorf("quantity reconciliation finished with %d row errors", summary.Errors)
	}
	return nil
}
