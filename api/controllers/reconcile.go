package controllers

import (
	"context"
	"net/http"

	"github.com/peacetifal/peacetifal-backend/api/responses"
	"github.com/peacetifal/peacetifal-backend/internal/reconcile"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

type quantityReconciler interface {
	Run(ctx context.Context) (reconcile.Summary, error)
}

type addressSyncer interface {
	Sync(ctx context.Context) (int64, error)
}

type reconcileRunResponse struct {
	Summary         reconcile.Summary `json:"summary"`
	AddressesSynced int64             `json:"addresses_synced"`
}

// AdminRunReconcile triggers an on-demand reconciliation pass followed by the
// address quantity sync, and reports what changed.
func AdminRunReconcile(engine quantityReconciler, propagator addressSyncer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil || propagator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation unavailable"))
			return
		}

		summary, err := engine.Run(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "quantity reconciliation failed"))
			return
		}

		synced, err := propagator.Sync(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "address quantity sync failed"))
			return
		}

		responses.WriteSuccess(w, reconcileRunResponse{
			Summary:         summary,
			AddressesSynced: synced,
		})
	}
}
