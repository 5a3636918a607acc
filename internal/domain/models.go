package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         string          `json:"id"`
	StoreID    string          `json:"store_id"`
	Name       string          `json:"name"`
	CategoryID string          `json:"category_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name       string          `json:"name"`
	CategoryID string          `json:"category_id,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

type ProductUpdateRequest struct {
	Name       *string          `json:"name,omitempty"`
	CategoryID *string          `json:"category_id,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Quantity   *int             `json:"quantity,omitempty"`
}

type Category struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	ColorName string    `json:"color_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryCreateRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	ColorName string `json:"color_name"`
}

type CategoryUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	Color     *string `json:"color,omitempty"`
	ColorName *string `json:"color_name,omitempty"`
}

// Sale is one outgoing transaction line. Price is the unit price at the time
// of the sale, not a reference to the product's current price.
type Sale struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Date        time.Time       `json:"date"`
}

// Return mirrors Sale for incoming stock. Quantities are stored positive;
// the ledger negates them at presentation time.
type Return struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Date        time.Time       `json:"date"`
}

func (s Sale) OccurredAt() time.Time { return s.Date }

// Amount is the line total, quantity times unit price.
func (s Sale) Amount() decimal.Decimal {
	return s.Price.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

func (s Sale) Units() int { return s.Quantity }

func (r Return) OccurredAt() time.Time { return r.Date }

func (r Return) Amount() decimal.Decimal {
	return r.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

func (r Return) Units() int { return r.Quantity }

type TransactionCreateRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Date      *time.Time      `json:"date,omitempty"`
}

type Variant struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	Hex       string    `json:"hex,omitempty"`
	Value     float64   `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VariantCreateRequest struct {
	Type  string  `json:"type"`
	Name  string  `json:"name,omitempty"`
	Hex   string  `json:"hex,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// LedgerLine is one row of the merged daily ledger. Return lines carry a
// negative quantity and a negative line total.
type LedgerLine struct {
	Time        time.Time       `json:"time"`
	Kind        string          `json:"kind"`
	RecordID    string          `json:"record_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type MonthRevenue struct {
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type DashboardResponse struct {
	StoreID       string          `json:"store_id"`
	Date          string          `json:"date"`
	Revenue       decimal.Decimal `json:"revenue"`
	SalesQty      int             `json:"sales_qty"`
	ReturnsQty    int             `json:"returns_qty"`
	ProductsSold  int             `json:"products_sold"`
	AverageBasket decimal.Decimal `json:"average_basket"`
	Ledger        []LedgerLine    `json:"ledger"`
}

type StatsResponse struct {
	StoreID       string            `json:"store_id"`
	Month         string            `json:"month"`
	Revenue       decimal.Decimal   `json:"revenue"`
	SalesQty      int               `json:"sales_qty"`
	ReturnsQty    int               `json:"returns_qty"`
	ProductsSold  int               `json:"products_sold"`
	AverageBasket decimal.Decimal   `json:"average_basket"`
	ByCategory    []CategoryRevenue `json:"by_category"`
	Year          int               `json:"year"`
	Annual        []MonthRevenue    `json:"annual"`
}

type CascadeDeleteResponse struct {
	ProductID      string `json:"product_id"`
	SalesDeleted   int    `json:"sales_deleted"`
	ReturnsDeleted int    `json:"returns_deleted"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

const (
	VariantTypeColor    = "color"
	VariantTypeSize     = "size"
	VariantTypeShoeSize = "shoe_size"
)

const (
	LedgerKindSale   = "sale"
	LedgerKindReturn = "return"
)
