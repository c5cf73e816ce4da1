package reconcile

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

// Propagator pushes repaired purchase quantities into the denormalized copy
// on order_addresses. One set-based statement touches only rows whose cached
// quantity is missing or stale, so converged rows keep their timestamps.
type Propagator struct {
	conn *gorm.DB
	logg *logger.Logger
}

// NewPropagator builds the mirror sync propagator.
func NewPropagator(conn *gorm.DB, logg *logger.Logger) (*Propagator, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Propagator{conn: conn, logg: logg}, nil
}

// Sync copies purchase quantities onto stale order_addresses rows and returns
// how many rows changed.
func (p *Propagator) Sync(ctx context.Context) (int64, error) {
	res := p.conn.WithContext(ctx).Exec(`
		UPDATE order_addresses
		SET quantity = purchases.quantity, updated_at = ?
		FROM purchases
		WHERE purchases.id = order_addresses.purchase_id
		  AND (order_addresses.quantity IS NULL OR order_addresses.quantity <> purchases.quantity)`,
		time.Now().UTC(),
	)
	if res.Error != nil {
		return 0, fmt.Errorf("syncing order address quantities: %w", res.Error)
	}

	p.logg.Info(p.logg.WithField(ctx, "rows", res.RowsAffected), "order address quantities synced")
	return res.RowsAffected, nil
}
