// Package ledger holds the pure aggregation functions behind the dashboard
// and statistics endpoints. Everything here is side-effect free: callers pass
// in store-scoped slices and get derived values back. All period intervals
// are half-open, [from, to).
package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dukkan/backend/internal/domain"
)

// UncategorizedBucket receives revenue of products whose category id is empty
// or no longer resolves to an existing category.
const UncategorizedBucket = "uncategorized"

// missingName is rendered when neither the record nor the product list can
// name a product.
const missingName = "—"

// Entry is a dated transaction line. Both domain.Sale and domain.Return
// satisfy it.
type Entry interface {
	OccurredAt() time.Time
	Amount() decimal.Decimal
	Units() int
}

// FilterByRange keeps entries with from <= OccurredAt < to.
func FilterByRange[T Entry](entries []T, from, to time.Time) []T {
	var out []T
	for _, e := range entries {
		at := e.OccurredAt()
		if !at.Before(from) && at.Before(to) {
			out = append(out, e)
		}
	}
	return out
}

// Sum adds up the line totals of the given entries.
func Sum[T Entry](entries []T) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount())
	}
	return total
}

// Units adds up the quantities of the given entries.
func Units[T Entry](entries []T) int {
	var total int
	for _, e := range entries {
		total += e.Units()
	}
	return total
}

// Revenue is sales turnover minus returned value.
func Revenue(sales []domain.Sale, returns []domain.Return) decimal.Decimal {
	return Sum(sales).Sub(Sum(returns))
}

// NetQuantity is units sold minus units returned.
func NetQuantity(sales []domain.Sale, returns []domain.Return) int {
	return Units(sales) - Units(returns)
}

// AverageBasket is sales revenue divided by the number of sales. Returns are
// not part of the basket. Zero when there are no sales.
func AverageBasket(sales []domain.Sale) decimal.Decimal {
	if len(sales) == 0 {
		return decimal.Zero
	}
	return Sum(sales).Div(decimal.NewFromInt(int64(len(sales))))
}

// DayRange returns [midnight, next midnight) around day in day's location.
func DayRange(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// MonthRange returns [first of month, first of next month).
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// YearRange returns [Jan 1, next Jan 1).
func YearRange(year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

// DailyLedger merges the day's sales and returns into a single chronological
// list. Return lines carry negated quantity and line total so the list sums
// to the day's net position.
func DailyLedger(sales []domain.Sale, returns []domain.Return, products []domain.Product, day time.Time) []domain.LedgerLine {
	from, to := DayRange(day)
	names := productNames(products)

	lines := make([]domain.LedgerLine, 0, len(sales)+len(returns))
	for _, s := range FilterByRange(sales, from, to) {
		lines = append(lines, domain.LedgerLine{
			Time:        s.Date,
			Kind:        domain.LedgerKindSale,
			RecordID:    s.ID,
			ProductID:   s.ProductID,
			ProductName: resolveName(s.ProductName, s.ProductID, names),
			Quantity:    s.Quantity,
			UnitPrice:   s.Price,
			LineTotal:   s.Amount(),
		})
	}
	for _, r := range FilterByRange(returns, from, to) {
		lines = append(lines, domain.LedgerLine{
			Time:        r.Date,
			Kind:        domain.LedgerKindReturn,
			RecordID:    r.ID,
			ProductID:   r.ProductID,
			ProductName: resolveName(r.ProductName, r.ProductID, names),
			Quantity:    -r.Quantity,
			UnitPrice:   r.Price,
			LineTotal:   r.Amount().Neg(),
		})
	}

	slices.SortFunc(lines, func(a, b domain.LedgerLine) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return strings.Compare(a.RecordID, b.RecordID)
	})
	return lines
}

// AnnualSeries buckets the year's net revenue by calendar month. The result
// always has exactly twelve buckets, January first, quiet months at zero.
func AnnualSeries(sales []domain.Sale, returns []domain.Return, year int, loc *time.Location) []domain.MonthRevenue {
	buckets := make([]domain.MonthRevenue, 12)
	for i := range buckets {
		buckets[i] = domain.MonthRevenue{Month: i + 1, Revenue: decimal.Zero}
	}

	from, to := YearRange(year, loc)
	for _, s := range FilterByRange(sales, from, to) {
		m := int(s.Date.In(loc).Month()) - 1
		buckets[m].Revenue = buckets[m].Revenue.Add(s.Amount())
	}
	for _, r := range FilterByRange(returns, from, to) {
		m := int(r.Date.In(loc).Month()) - 1
		buckets[m].Revenue = buckets[m].Revenue.Sub(r.Amount())
	}
	return buckets
}

// RevenueByCategory rolls the entries' net revenue up to category names via
// each product's category id. Products without a resolvable category land in
// the UncategorizedBucket. Buckets are sorted by revenue, highest first, name
// breaking ties.
func RevenueByCategory(sales []domain.Sale, returns []domain.Return, products []domain.Product, categories []domain.Category) []domain.CategoryRevenue {
	byProduct := map[string]decimal.Decimal{}
	for _, s := range sales {
		byProduct[s.ProductID] = byProduct[s.ProductID].Add(s.Amount())
	}
	for _, r := range returns {
		byProduct[r.ProductID] = byProduct[r.ProductID].Sub(r.Amount())
	}

	categoryByProduct := map[string]string{}
	categoryNames := map[string]string{}
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}
	for _, p := range products {
		if name, ok := categoryNames[p.CategoryID]; ok {
			categoryByProduct[p.ID] = name
		}
	}

	byCategory := map[string]decimal.Decimal{}
	for productID, revenue := range byProduct {
		name, ok := categoryByProduct[productID]
		if !ok {
			name = UncategorizedBucket
		}
		byCategory[name] = byCategory[name].Add(revenue)
	}

	out := make([]domain.CategoryRevenue, 0, len(byCategory))
	for name, revenue := range byCategory {
		out = append(out, domain.CategoryRevenue{Category: name, Revenue: revenue})
	}
	slices.SortFunc(out, func(a, b domain.CategoryRevenue) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

func productNames(products []domain.Product) map[string]string {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names
}

func resolveName(recorded string, productID string, names map[string]string) string {
	if recorded != "" {
		return recorded
	}
	if name, ok := names[productID]; ok {
		return name
	}
	return missingName
}
