// Package export writes parquet snapshots of the orders table to object
// storage.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/orderlens/orderlens/internal/storage"
	"github.com/orderlens/orderlens/internal/store"
)

const parquetContentType = "application/vnd.apache.parquet"

type parquetOrder struct {
	ID             int64   `parquet:"id"`
	Cliente        string  `parquet:"cliente"`
	Cidade         string  `parquet:"cidade"`
	Bairro         string  `parquet:"bairro"`
	Produto        string  `parquet:"produto"`
	Categoria      string  `parquet:"categoria"`
	DataPedido     string  `parquet:"data_pedido"`
	ValorTotal     float64 `parquet:"valor_total"`
	TempoEntrega   int32   `parquet:"tempo_entrega"`
	Quantidade     int32   `parquet:"quantidade"`
	CustoUnitario  float64 `parquet:"custo_unitario"`
	FormaPagamento string  `parquet:"forma_pagamento"`
}

// EncodeOrders renders orders as a parquet file. Dates are written as
// YYYY-MM-DD strings.
func EncodeOrders(orders []store.Order) ([]byte, error) {
	if len(orders) == 0 {
		return nil, fmt.Errorf("orders are required")
	}

	rows := make([]parquetOrder, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, parquetOrder{
			ID:             order.ID,
			Cliente:        order.Customer,
			Cidade:         order.City,
			Bairro:         order.Neighborhood,
			Produto:        order.Product,
			Categoria:      order.Category,
			DataPedido:     order.OrderDate.Format("2006-01-02"),
			ValorTotal:     order.TotalValue,
			TempoEntrega:   int32(order.DeliveryTime),
			Quantidade:     int32(order.Quantity),
			CustoUnitario:  order.UnitCost,
			FormaPagamento: order.PaymentMethod,
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetOrder](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

type Exporter struct {
	store storage.ObjectStore
	now   func() time.Time
}

func New(objectStore storage.ObjectStore) *Exporter {
	return &Exporter{
		store: objectStore,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Export encodes the orders and uploads them under a timestamped key.
func (e *Exporter) Export(ctx context.Context, orders []store.Order) (storage.ObjectInfo, error) {
	data, err := EncodeOrders(orders)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	key := fmt.Sprintf("orders/%s.parquet", e.now().Format("20060102T150405Z"))
	info, err := e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), parquetContentType)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("upload snapshot %q: %w", key, err)
	}
	return info, nil
}
