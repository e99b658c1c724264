package analytics

import (
	"fmt"
	"strings"

	"github.com/orderlens/orderlens/internal/intent"
)

// Outcome is the structured result of one dispatched aggregation. Which
// fields are meaningful depends on Kind; HasData reports whether the
// aggregation matched any rows.
type Outcome struct {
	Kind       intent.Type
	HasData    bool
	Value      float64
	Count      int64
	Minutes    int64
	Products   []ProductCount
	Months     []MonthRevenue
	Categories []CategoryUnits
}

type ProductCount struct {
	Product string
	Orders  int64
}

type MonthRevenue struct {
	Month   string
	Revenue float64
}

type CategoryUnits struct {
	Category string
	Units    int64
}

// Format renders an outcome to the plain text contract of each analysis
// type. Currency and percentage values carry exactly two decimals.
func Format(outcome Outcome) string {
	switch outcome.Kind {
	case intent.TypeAverageTicket:
		if !outcome.HasData {
			return "no data"
		}
		return fmt.Sprintf("average ticket is %.2f", outcome.Value)
	case intent.TypeAverageDeliveryTime:
		if !outcome.HasData {
			return "no data"
		}
		return fmt.Sprintf("average delivery time is %d minutes", outcome.Minutes)
	case intent.TypeBestSellers:
		if len(outcome.Products) == 0 {
			return "no products found"
		}
		lines := make([]string, 0, len(outcome.Products))
		for i, entry := range outcome.Products {
			lines = append(lines, fmt.Sprintf("%d. %s – %d orders", i+1, entry.Product, entry.Orders))
		}
		return strings.Join(lines, "\n")
	case intent.TypeOrderCount:
		if !outcome.HasData {
			return "no data"
		}
		return fmt.Sprintf("total orders: %d", outcome.Count)
	case intent.TypeRevenue:
		if !outcome.HasData {
			return "no data"
		}
		return fmt.Sprintf("total revenue: %.2f", outcome.Value)
	case intent.TypeProfit:
		if !outcome.HasData {
			return "no data"
		}
		return fmt.Sprintf("estimated profit: %.2f", outcome.Value)
	case intent.TypeMargin:
		if !outcome.HasData {
			return "no data"
		}
		return fmt.Sprintf("gross margin is %.2f%%", outcome.Value)
	case intent.TypeMonthlyRevenue:
		if len(outcome.Months) == 0 {
			return "no monthly data"
		}
		lines := make([]string, 0, len(outcome.Months))
		for _, entry := range outcome.Months {
			lines = append(lines, fmt.Sprintf("%s: %.2f", entry.Month, entry.Revenue))
		}
		return strings.Join(lines, "\n")
	case intent.TypeSalesByCategory:
		if len(outcome.Categories) == 0 {
			return "no category data"
		}
		lines := make([]string, 0, len(outcome.Categories))
		for _, entry := range outcome.Categories {
			lines = append(lines, fmt.Sprintf("%s: %d units", entry.Category, entry.Units))
		}
		return strings.Join(lines, "\n")
	default:
		return "sorry, I did not understand the requested analysis"
	}
}
