package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orderlens/orderlens/internal/storage"
	"github.com/orderlens/orderlens/internal/store"
)

const insertBatchSize = 500

// Exporter uploads a snapshot of the seeded orders to object storage.
type Exporter interface {
	Export(ctx context.Context, orders []store.Order) (storage.ObjectInfo, error)
}

type Seeder struct {
	db       *store.DB
	exporter Exporter // nil skips the snapshot upload
	logger   *slog.Logger
}

func NewSeeder(db *store.DB, exporter Exporter, logger *slog.Logger) *Seeder {
	return &Seeder{db: db, exporter: exporter, logger: logger}
}

// Run recreates the pedidos table and fills it with count generated orders.
// With an exporter configured, the same batch is uploaded as a parquet
// snapshot afterwards.
func (s *Seeder) Run(ctx context.Context, seedValue int64, count int) error {
	if count <= 0 {
		return fmt.Errorf("order count must be positive")
	}

	if err := s.db.ResetSchema(ctx); err != nil {
		return err
	}

	orders := NewGenerator(seedValue).Orders(count)
	for start := 0; start < len(orders); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(orders) {
			end = len(orders)
		}
		if err := s.db.InsertOrders(ctx, orders[start:end]); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "seeded orders", slog.Int("count", len(orders)))
	}

	if s.exporter == nil {
		return nil
	}
	info, err := s.exporter.Export(ctx, orders)
	if err != nil {
		return fmt.Errorf("export seeded orders: %w", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "exported order snapshot",
			slog.String("key", info.Key),
			slog.Int64("size", info.Size),
		)
	}
	return nil
}
