package store

import "strconv"

// Dialect captures the few SQL differences between the supported drivers:
// placeholder style and the expression projecting a date column to its
// "YYYY-MM" month.
type Dialect struct {
	name string
}

var (
	DuckDB   = Dialect{name: "duckdb"}
	Postgres = Dialect{name: "postgres"}
)

func (d Dialect) Name() string {
	return d.name
}

// Placeholder returns the bind marker for the n-th parameter (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.name == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// MonthExpr returns an expression evaluating to the YYYY-MM month of the
// given date column.
func (d Dialect) MonthExpr(column string) string {
	if d.name == "postgres" {
		return "to_char(" + column + ", 'YYYY-MM')"
	}
	return "strftime(" + column + ", '%Y-%m')"
}

func (d Dialect) createTableSQL() string {
	if d.name == "postgres" {
		return `CREATE TABLE IF NOT EXISTS pedidos (
	id BIGINT PRIMARY KEY,
	cliente TEXT,
	cidade TEXT,
	bairro TEXT,
	produto TEXT,
	categoria TEXT,
	data_pedido DATE,
	valor_total DOUBLE PRECISION,
	tempo_entrega INTEGER,
	quantidade INTEGER,
	custo_unitario DOUBLE PRECISION,
	forma_pagamento TEXT
)`
	}
	return `CREATE TABLE IF NOT EXISTS pedidos (
	id BIGINT PRIMARY KEY,
	cliente VARCHAR,
	cidade VARCHAR,
	bairro VARCHAR,
	produto VARCHAR,
	categoria VARCHAR,
	data_pedido DATE,
	valor_total DOUBLE,
	tempo_entrega INTEGER,
	quantidade INTEGER,
	custo_unitario DOUBLE,
	forma_pagamento VARCHAR
)`
}
