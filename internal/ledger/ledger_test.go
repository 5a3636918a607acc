package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dukkan/backend/internal/domain"
)

func mkSale(id, productID string, qty int, price string, at time.Time) domain.Sale {
	return domain.Sale{
		ID:        id,
		StoreID:   "akcher",
		ProductID: productID,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
		Date:      at,
	}
}

func mkReturn(id, productID string, qty int, price string, at time.Time) domain.Return {
	return domain.Return{
		ID:        id,
		StoreID:   "akcher",
		ProductID: productID,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
		Date:      at,
	}
}

func wantDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFilterByRange_HalfOpen(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	from, to := DayRange(day)

	sales := []domain.Sale{
		mkSale("s1", "p1", 1, "10", from),                     // at start, included
		mkSale("s2", "p1", 1, "10", from.Add(12*time.Hour)),   // mid-day
		mkSale("s3", "p1", 1, "10", to),                       // at end, excluded
		mkSale("s4", "p1", 1, "10", from.Add(-1*time.Second)), // day before
	}

	got := FilterByRange(sales, from, to)
	if len(got) != 2 {
		t.Fatalf("expected 2 sales in range, got %d", len(got))
	}
	if got[0].ID != "s1" || got[1].ID != "s2" {
		t.Fatalf("unexpected ids: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestFilterByRange_Idempotent(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	from, to := DayRange(day)
	sales := []domain.Sale{
		mkSale("s1", "p1", 2, "15", from.Add(time.Hour)),
		mkSale("s2", "p1", 1, "15", to.Add(time.Hour)),
	}

	first := FilterByRange(sales, from, to)
	second := FilterByRange(sales, from, to)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("result differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
	if len(sales) != 2 {
		t.Fatalf("input mutated: %d entries", len(sales))
	}
}

// Two sales of 5 units at 20 and one return of 2 units at 20 on the same day:
// revenue 160, net quantity 8.
func TestRevenueAndNetQuantity_SameDay(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		mkSale("s1", "p1", 5, "20", day.Add(9*time.Hour)),
		mkSale("s2", "p1", 5, "20", day.Add(14*time.Hour)),
	}
	returns := []domain.Return{
		mkReturn("r1", "p1", 2, "20", day.Add(16*time.Hour)),
	}

	wantDecimal(t, Revenue(sales, returns), "160")
	if got := NetQuantity(sales, returns); got != 8 {
		t.Fatalf("expected net quantity 8, got %d", got)
	}
}

func TestAverageBasket(t *testing.T) {
	day := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		mkSale("s1", "p1", 2, "30", day),
		mkSale("s2", "p2", 1, "40", day),
	}
	// (60 + 40) / 2
	wantDecimal(t, AverageBasket(sales), "50")
}

func TestAverageBasket_EmptyIsZero(t *testing.T) {
	wantDecimal(t, AverageBasket(nil), "0")
	wantDecimal(t, AverageBasket([]domain.Sale{}), "0")
}

func TestAnnualSeries_AlwaysTwelveBuckets(t *testing.T) {
	for _, tc := range []struct {
		name    string
		sales   []domain.Sale
		returns []domain.Return
	}{
		{name: "no records"},
		{
			name:  "single month",
			sales: []domain.Sale{mkSale("s1", "p1", 1, "100", time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC))},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buckets := AnnualSeries(tc.sales, tc.returns, 2025, time.UTC)
			if len(buckets) != 12 {
				t.Fatalf("expected 12 buckets, got %d", len(buckets))
			}
			for i, b := range buckets {
				if b.Month != i+1 {
					t.Fatalf("bucket %d has month %d", i, b.Month)
				}
			}
		})
	}
}

func TestAnnualSeries_NetsReturnsPerMonth(t *testing.T) {
	sales := []domain.Sale{
		mkSale("s1", "p1", 3, "100", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)),
		mkSale("s2", "p1", 1, "100", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)),
		mkSale("s3", "p1", 9, "100", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)), // wrong year
	}
	returns := []domain.Return{
		mkReturn("r1", "p1", 1, "100", time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)),
	}

	buckets := AnnualSeries(sales, returns, 2025, time.UTC)
	wantDecimal(t, buckets[1].Revenue, "200")  // February: 300 - 100
	wantDecimal(t, buckets[10].Revenue, "100") // November
	wantDecimal(t, buckets[0].Revenue, "0")
}

func TestDailyLedger_SortedAndNegated(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	products := []domain.Product{
		{ID: "p1", StoreID: "akcher", Name: "Sandale cuir"},
	}
	sales := []domain.Sale{
		mkSale("s1", "p1", 2, "50", day.Add(15*time.Hour)),
		mkSale("s2", "p1", 1, "50", day.Add(9*time.Hour)),
		mkSale("s3", "p1", 4, "50", day.AddDate(0, 0, 1)), // next day, excluded
	}
	returns := []domain.Return{
		mkReturn("r1", "p1", 3, "50", day.Add(11*time.Hour)),
	}

	lines := DailyLedger(sales, returns, products, day)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Time.Before(lines[i-1].Time) {
			t.Fatalf("lines not sorted ascending at %d", i)
		}
	}

	ret := lines[1]
	if ret.Kind != domain.LedgerKindReturn {
		t.Fatalf("expected return line in position 1, got %s", ret.Kind)
	}
	if ret.Quantity != -3 {
		t.Fatalf("expected negated quantity -3, got %d", ret.Quantity)
	}
	wantDecimal(t, ret.LineTotal, "-150")
	if ret.ProductName != "Sandale cuir" {
		t.Fatalf("expected resolved product name, got %q", ret.ProductName)
	}
}

func TestDailyLedger_NameResolution(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	products := []domain.Product{{ID: "p1", Name: "Basket blanche"}}

	snapshot := mkSale("s1", "p1", 1, "10", day.Add(1*time.Hour))
	snapshot.ProductName = "Ancien nom"
	lookup := mkSale("s2", "p1", 1, "10", day.Add(2*time.Hour))
	gone := mkSale("s3", "p-deleted", 1, "10", day.Add(3*time.Hour))

	lines := DailyLedger([]domain.Sale{snapshot, lookup, gone}, nil, products, day)

	if lines[0].ProductName != "Ancien nom" {
		t.Fatalf("recorded name should win, got %q", lines[0].ProductName)
	}
	if lines[1].ProductName != "Basket blanche" {
		t.Fatalf("expected product lookup, got %q", lines[1].ProductName)
	}
	if lines[2].ProductName != "—" {
		t.Fatalf("expected placeholder for unknown product, got %q", lines[2].ProductName)
	}
}

// One sale of 2 units at 50 and one return of 1 unit at 50 on a product in
// the Shoes category nets out to 50 for Shoes.
func TestRevenueByCategory(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	categories := []domain.Category{{ID: "c1", Name: "Shoes"}}
	products := []domain.Product{{ID: "px", Name: "Mocassin", CategoryID: "c1"}}

	sales := []domain.Sale{mkSale("s1", "px", 2, "50", at)}
	returns := []domain.Return{mkReturn("r1", "px", 1, "50", at)}

	got := RevenueByCategory(sales, returns, products, categories)
	if len(got) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(got))
	}
	if got[0].Category != "Shoes" {
		t.Fatalf("expected Shoes, got %q", got[0].Category)
	}
	wantDecimal(t, got[0].Revenue, "50")
}

func TestRevenueByCategory_UncategorizedFallback(t *testing.T) {
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	categories := []domain.Category{{ID: "c1", Name: "Shoes"}}
	products := []domain.Product{
		{ID: "p1", Name: "Mocassin", CategoryID: "c1"},
		{ID: "p2", Name: "Divers"},                          // no category
		{ID: "p3", Name: "Ceinture", CategoryID: "c-gone"}, // dangling reference
	}
	sales := []domain.Sale{
		mkSale("s1", "p1", 1, "100", at),
		mkSale("s2", "p2", 1, "30", at),
		mkSale("s3", "p3", 1, "20", at),
	}

	got := RevenueByCategory(sales, nil, products, categories)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(got))
	}
	if got[0].Category != "Shoes" {
		t.Fatalf("expected Shoes first, got %q", got[0].Category)
	}
	if got[1].Category != UncategorizedBucket {
		t.Fatalf("expected %q bucket, got %q", UncategorizedBucket, got[1].Category)
	}
	wantDecimal(t, got[1].Revenue, "50")
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(2025, time.December, time.UTC)
	if !from.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %s", from)
	}
	if !to.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %s", to)
	}
}
