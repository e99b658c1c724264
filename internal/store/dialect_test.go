package store

import "testing"

func TestPlaceholderStyles(t *testing.T) {
	if got := DuckDB.Placeholder(3); got != "?" {
		t.Fatalf("DuckDB.Placeholder(3) = %q", got)
	}
	if got := Postgres.Placeholder(3); got != "$3" {
		t.Fatalf("Postgres.Placeholder(3) = %q", got)
	}
}

func TestMonthExpr(t *testing.T) {
	if got := DuckDB.MonthExpr("data_pedido"); got != "strftime(data_pedido, '%Y-%m')" {
		t.Fatalf("DuckDB.MonthExpr() = %q", got)
	}
	if got := Postgres.MonthExpr("data_pedido"); got != "to_char(data_pedido, 'YYYY-MM')" {
		t.Fatalf("Postgres.MonthExpr() = %q", got)
	}
}
