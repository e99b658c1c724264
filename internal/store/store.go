package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/orderlens/orderlens/internal/config"
)

// Order is one row of the pedidos table.
type Order struct {
	ID            int64
	Customer      string
	City          string
	Neighborhood  string
	Product       string
	Category      string
	OrderDate     time.Time
	TotalValue    float64
	DeliveryTime  int
	Quantity      int
	UnitCost      float64
	PaymentMethod string
}

// DB bundles the SQL handle with the dialect the SQL was opened under.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
}

func Open(ctx context.Context, cfg config.StoreConfig) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store dsn is required")
	}

	var driverName string
	var dialect Dialect
	switch cfg.Driver {
	case config.StoreDriverDuckDB:
		driverName = "duckdb"
		dialect = DuckDB
	case config.StoreDriverPostgres:
		driverName = "pgx"
		dialect = Postgres
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open orders db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping orders db: %w", err)
	}

	return &DB{SQL: db, Dialect: dialect}, nil
}

func (db *DB) Close() error {
	return db.SQL.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("ping orders db: %w", err)
	}
	return nil
}

// EnsureSchema creates the pedidos table when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.SQL.ExecContext(ctx, db.Dialect.createTableSQL()); err != nil {
		return fmt.Errorf("create pedidos table: %w", err)
	}
	return nil
}

// ResetSchema drops and recreates the pedidos table. Used by the seeder.
func (db *DB) ResetSchema(ctx context.Context) error {
	if _, err := db.SQL.ExecContext(ctx, "DROP TABLE IF EXISTS pedidos"); err != nil {
		return fmt.Errorf("drop pedidos table: %w", err)
	}
	return db.EnsureSchema(ctx)
}

func (db *DB) InsertOrders(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	placeholders := make([]string, 0, 12)
	for i := 1; i <= 12; i++ {
		placeholders = append(placeholders, db.Dialect.Placeholder(i))
	}
	insertSQL := `INSERT INTO pedidos (id, cliente, cidade, bairro, produto, categoria, data_pedido, valor_total, tempo_entrega, quantidade, custo_unitario, forma_pagamento)
VALUES (` + strings.Join(placeholders, ", ") + `)`

	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare order insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, order := range orders {
		_, err := stmt.ExecContext(ctx,
			order.ID,
			order.Customer,
			order.City,
			order.Neighborhood,
			order.Product,
			order.Category,
			order.OrderDate,
			order.TotalValue,
			order.DeliveryTime,
			order.Quantity,
			order.UnitCost,
			order.PaymentMethod,
		)
		if err != nil {
			return fmt.Errorf("insert order %d: %w", order.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order insert: %w", err)
	}
	return nil
}

// FetchOrders reads the whole table, ordered by id. Used by the snapshot
// exporter.
func (db *DB) FetchOrders(ctx context.Context) ([]Order, error) {
	rows, err := db.SQL.QueryContext(ctx, `SELECT id, cliente, cidade, bairro, produto, categoria, data_pedido, valor_total, tempo_entrega, quantidade, custo_unitario, forma_pagamento
FROM pedidos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []Order
	for rows.Next() {
		var order Order
		err := rows.Scan(
			&order.ID,
			&order.Customer,
			&order.City,
			&order.Neighborhood,
			&order.Product,
			&order.Category,
			&order.OrderDate,
			&order.TotalValue,
			&order.DeliveryTime,
			&order.Quantity,
			&order.UnitCost,
			&order.PaymentMethod,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}
