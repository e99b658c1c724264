// Package analytics maps classified intents onto parameterized aggregation
// queries over the pedidos table and renders the results as plain text.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/orderlens/orderlens/internal/intent"
	"github.com/orderlens/orderlens/internal/observability"
	"github.com/orderlens/orderlens/internal/store"
)

var ErrUnknownFilterField = errors.New("unsupported filter field")

// allowedFilterFields is the fixed set of columns a classified filter may
// reference. Anything else is rejected before it reaches the query layer.
var allowedFilterFields = map[string]struct{}{
	"cliente":         {},
	"cidade":          {},
	"bairro":          {},
	"produto":         {},
	"categoria":       {},
	"data_pedido":     {},
	"forma_pagamento": {},
}

type Dispatcher struct {
	db     *store.DB
	logger *slog.Logger
}

func NewDispatcher(db *store.DB, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{db: db, logger: logger}
}

// Dispatch runs the aggregation for the intent's type and returns a
// structured outcome. An unrecognized or empty type yields an outcome the
// formatter renders as "not understood"; an unrecognized filter field is an
// error.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) (Outcome, error) {
	start := time.Now()
	defer func() { observability.ObserveDispatch(time.Since(start)) }()

	where, args, err := d.buildWhere(in.Filters)
	if err != nil {
		return Outcome{}, err
	}

	switch in.Type {
	case intent.TypeAverageTicket:
		return d.scalarOutcome(ctx, in.Type, "SELECT AVG(valor_total) FROM pedidos"+where, args)
	case intent.TypeAverageDeliveryTime:
		outcome, err := d.scalarOutcome(ctx, in.Type, "SELECT AVG(tempo_entrega) FROM pedidos"+where, args)
		if err != nil {
			return Outcome{}, err
		}
		outcome.Minutes = int64(math.Round(outcome.Value))
		return outcome, nil
	case intent.TypeBestSellers:
		return d.bestSellers(ctx, where, args)
	case intent.TypeOrderCount:
		return d.orderCount(ctx, where, args)
	case intent.TypeRevenue:
		return d.scalarOutcome(ctx, in.Type, "SELECT SUM(valor_total) FROM pedidos"+where, args)
	case intent.TypeProfit:
		return d.scalarOutcome(ctx, in.Type, "SELECT SUM(valor_total - custo_unitario * quantidade) FROM pedidos"+where, args)
	case intent.TypeMargin:
		return d.margin(ctx, where, args)
	case intent.TypeMonthlyRevenue:
		return d.monthlyRevenue(ctx, where, args)
	case intent.TypeSalesByCategory:
		return d.salesByCategory(ctx, where, args)
	default:
		return Outcome{Kind: in.Type}, nil
	}
}

// buildWhere turns the filter map into a WHERE clause with bound parameters.
// A data_pedido value of exactly 7 characters ("YYYY-MM") matches the whole
// calendar month; every other filter is an equality on the stored value.
// Fields are processed in sorted order so the generated SQL is stable.
func (d *Dispatcher) buildWhere(filters map[string]string) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	fields := make([]string, 0, len(filters))
	for field := range filters {
		if _, ok := allowedFilterFields[field]; !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownFilterField, field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	predicates := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, field := range fields {
		value := filters[field]
		placeholder := d.db.Dialect.Placeholder(i + 1)
		if field == "data_pedido" && len(value) == 7 {
			predicates = append(predicates, d.db.Dialect.MonthExpr(field)+" = "+placeholder)
		} else {
			predicates = append(predicates, field+" = "+placeholder)
		}
		args = append(args, value)
	}
	return " WHERE " + strings.Join(predicates, " AND "), args, nil
}

func (d *Dispatcher) scalarOutcome(ctx context.Context, kind intent.Type, query string, args []any) (Outcome, error) {
	var value sql.NullFloat64
	if err := d.db.SQL.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return Outcome{}, fmt.Errorf("run %s aggregation: %w", kind, err)
	}
	return Outcome{Kind: kind, HasData: value.Valid, Value: value.Float64}, nil
}

func (d *Dispatcher) orderCount(ctx context.Context, where string, args []any) (Outcome, error) {
	var count int64
	err := d.db.SQL.QueryRowContext(ctx, "SELECT COUNT(*) FROM pedidos"+where, args...).Scan(&count)
	if err == sql.ErrNoRows {
		return Outcome{Kind: intent.TypeOrderCount}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("run order count: %w", err)
	}
	return Outcome{Kind: intent.TypeOrderCount, HasData: true, Count: count}, nil
}

func (d *Dispatcher) bestSellers(ctx context.Context, where string, args []any) (Outcome, error) {
	query := "SELECT produto, COUNT(*) AS total FROM pedidos" + where + " GROUP BY produto ORDER BY total DESC LIMIT 5"
	rows, err := d.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return Outcome{}, fmt.Errorf("run best sellers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcome := Outcome{Kind: intent.TypeBestSellers}
	for rows.Next() {
		var entry ProductCount
		if err := rows.Scan(&entry.Product, &entry.Orders); err != nil {
			return Outcome{}, fmt.Errorf("scan best seller: %w", err)
		}
		outcome.Products = append(outcome.Products, entry)
	}
	if err := rows.Err(); err != nil {
		return Outcome{}, fmt.Errorf("iterate best sellers: %w", err)
	}
	outcome.HasData = len(outcome.Products) > 0
	return outcome, nil
}

func (d *Dispatcher) margin(ctx context.Context, where string, args []any) (Outcome, error) {
	query := "SELECT SUM(valor_total - custo_unitario * quantidade), SUM(valor_total) FROM pedidos" + where
	var profit, revenue sql.NullFloat64
	if err := d.db.SQL.QueryRowContext(ctx, query, args...).Scan(&profit, &revenue); err != nil {
		return Outcome{}, fmt.Errorf("run margin aggregation: %w", err)
	}
	if !revenue.Valid || revenue.Float64 == 0 {
		return Outcome{Kind: intent.TypeMargin}, nil
	}
	return Outcome{
		Kind:    intent.TypeMargin,
		HasData: true,
		Value:   profit.Float64 / revenue.Float64 * 100,
	}, nil
}

func (d *Dispatcher) monthlyRevenue(ctx context.Context, where string, args []any) (Outcome, error) {
	monthExpr := d.db.Dialect.MonthExpr("data_pedido")
	query := "SELECT " + monthExpr + " AS mes, SUM(valor_total) FROM pedidos" + where + " GROUP BY mes ORDER BY mes"
	rows, err := d.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return Outcome{}, fmt.Errorf("run monthly revenue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcome := Outcome{Kind: intent.TypeMonthlyRevenue}
	for rows.Next() {
		var entry MonthRevenue
		if err := rows.Scan(&entry.Month, &entry.Revenue); err != nil {
			return Outcome{}, fmt.Errorf("scan monthly revenue: %w", err)
		}
		outcome.Months = append(outcome.Months, entry)
	}
	if err := rows.Err(); err != nil {
		return Outcome{}, fmt.Errorf("iterate monthly revenue: %w", err)
	}
	outcome.HasData = len(outcome.Months) > 0
	return outcome, nil
}

func (d *Dispatcher) salesByCategory(ctx context.Context, where string, args []any) (Outcome, error) {
	query := "SELECT categoria, SUM(quantidade) FROM pedidos" + where + " GROUP BY categoria ORDER BY categoria"
	rows, err := d.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		return Outcome{}, fmt.Errorf("run sales by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	outcome := Outcome{Kind: intent.TypeSalesByCategory}
	for rows.Next() {
		var entry CategoryUnits
		if err := rows.Scan(&entry.Category, &entry.Units); err != nil {
			return Outcome{}, fmt.Errorf("scan category sales: %w", err)
		}
		outcome.Categories = append(outcome.Categories, entry)
	}
	if err := rows.Err(); err != nil {
		return Outcome{}, fmt.Errorf("iterate category sales: %w", err)
	}
	outcome.HasData = len(outcome.Categories) > 0
	return outcome, nil
}
