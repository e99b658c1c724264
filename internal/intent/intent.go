// Package intent classifies natural-language questions about the delivery
// business into one of the fixed analysis types plus optional filters.
package intent

import "fmt"

// Type is the wire tag for one of the supported analyses. An empty Type
// means the question was not about delivery analytics.
type Type string

const (
	TypeAverageTicket       Type = "average_ticket"
	TypeBestSellers         Type = "best_sellers"
	TypeAverageDeliveryTime Type = "average_delivery_time"
	TypeOrderCount          Type = "order_count"
	TypeRevenue             Type = "revenue"
	TypeProfit              Type = "profit"
	TypeMargin              Type = "margin"
	TypeMonthlyRevenue      Type = "monthly_revenue"
	TypeSalesByCategory     Type = "sales_by_category"
)

// Intent is the request-scoped classification of one question: the analysis
// type and a map of filter column to filter value.
type Intent struct {
	Type    Type
	Filters map[string]string
}

// ParseError reports a model response that could not be decoded as an
// intent. Raw carries the verbatim model output for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode intent from model output: %v (raw: %s)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
