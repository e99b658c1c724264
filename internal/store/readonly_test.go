package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newSQLMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })
	return &DB{SQL: mockDB, Dialect: DuckDB}, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestRunReadOnlyWrapsRowLimit(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM (SELECT cidade FROM pedidos) AS q LIMIT 10`)).
		WillReturnRows(sqlmock.NewRows([]string{"cidade"}).AddRow("São Paulo").AddRow("Rio de Janeiro"))

	result, err := db.RunReadOnly(context.Background(), "SELECT cidade FROM pedidos;", 10)
	if err != nil {
		t.Fatalf("RunReadOnly() error = %v", err)
	}
	if len(result.Columns) != 1 || result.Columns[0] != "cidade" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Rows = %d", len(result.Rows))
	}
	assertSQLMock(t, mock)
}

func TestRunReadOnlyNormalizesBytes(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT produto FROM pedidos`)).
		WillReturnRows(sqlmock.NewRows([]string{"produto"}).AddRow([]byte("Pizza Calabresa")))

	result, err := db.RunReadOnly(context.Background(), "SELECT produto FROM pedidos", 0)
	if err != nil {
		t.Fatalf("RunReadOnly() error = %v", err)
	}
	if got, ok := result.Rows[0][0].(string); !ok || got != "Pizza Calabresa" {
		t.Fatalf("Rows[0][0] = %#v", result.Rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestRunReadOnlyRejectsWrites(t *testing.T) {
	db, _ := newSQLMock(t)

	for _, stmt := range []string{
		"DELETE FROM pedidos",
		"UPDATE pedidos SET valor_total = 0",
		"DROP TABLE pedidos",
		"INSERT INTO pedidos VALUES (1)",
		"SELECT 1; DROP TABLE pedidos",
		"",
		"   ;  ",
	} {
		if _, err := db.RunReadOnly(context.Background(), stmt, 5); err == nil {
			t.Fatalf("RunReadOnly(%q) should fail", stmt)
		}
	}
}

func TestRunReadOnlyAllowsWith(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WITH t AS (SELECT 1 AS n) SELECT n FROM t`)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))

	if _, err := db.RunReadOnly(context.Background(), "WITH t AS (SELECT 1 AS n) SELECT n FROM t", 0); err != nil {
		t.Fatalf("RunReadOnly() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestInsertOrdersCommitsBatch(t *testing.T) {
	db, mock := newSQLMock(t)
	orderDate := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	insertSQL := `INSERT INTO pedidos (id, cliente, cidade, bairro, produto, categoria, data_pedido, valor_total, tempo_entrega, quantidade, custo_unitario, forma_pagamento)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare(regexp.QuoteMeta(insertSQL))
	prepared.ExpectExec().
		WithArgs(int64(1), "Ana Souza", "São Paulo", "Moema", "Pizza Calabresa", "Pizza", orderDate, 34.0, 35, 1, 16.0, "Pix").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepared.ExpectExec().
		WithArgs(int64(2), "João Lima", "São Paulo", "Pinheiros", "Pizza Calabresa", "Pizza", orderDate, 68.0, 40, 2, 16.0, "Cartão").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.InsertOrders(context.Background(), []Order{
		{ID: 1, Customer: "Ana Souza", City: "São Paulo", Neighborhood: "Moema", Product: "Pizza Calabresa", Category: "Pizza", OrderDate: orderDate, TotalValue: 34.0, DeliveryTime: 35, Quantity: 1, UnitCost: 16.0, PaymentMethod: "Pix"},
		{ID: 2, Customer: "João Lima", City: "São Paulo", Neighborhood: "Pinheiros", Product: "Pizza Calabresa", Category: "Pizza", OrderDate: orderDate, TotalValue: 68.0, DeliveryTime: 40, Quantity: 2, UnitCost: 16.0, PaymentMethod: "Cartão"},
	})
	if err != nil {
		t.Fatalf("InsertOrders() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestInsertOrdersEmptyIsNoop(t *testing.T) {
	db, mock := newSQLMock(t)
	if err := db.InsertOrders(context.Background(), nil); err != nil {
		t.Fatalf("InsertOrders(nil) error = %v", err)
	}
	assertSQLMock(t, mock)
}
