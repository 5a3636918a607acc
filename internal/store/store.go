package store

import (
	"context"
	"errors"
	"time"

	"dukkan/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

type Repository interface {
	ListProducts(ctx context.Context, storeID string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, storeID string, id string) (*domain.Product, error)
	GetProductByName(ctx context.Context, storeID string, name string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// AdjustProductQuantity applies delta to the product's stock balance.
	// A delta that would drive the balance below zero is refused with
	// ErrInsufficientStock and leaves the balance unchanged.
	AdjustProductQuantity(ctx context.Context, storeID string, id string, delta int) (*domain.Product, error)
	// DeleteProductCascade removes the product together with every sale and
	// return that references it, reporting how many of each were removed.
	DeleteProductCascade(ctx context.Context, storeID string, id string) (salesDeleted int, returnsDeleted int, err error)

	ListCategories(ctx context.Context, storeID string) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, storeID string, id string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, storeID string, id string) error

	ListSales(ctx context.Context, storeID string) ([]domain.Sale, error)
	ListSalesBetween(ctx context.Context, storeID string, from time.Time, to time.Time) ([]domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, storeID string, id string) (*domain.Sale, error)
	DeleteSale(ctx context.Context, storeID string, id string) error

	ListReturns(ctx context.Context, storeID string) ([]domain.Return, error)
	ListReturnsBetween(ctx context.Context, storeID string, from time.Time, to time.Time) ([]domain.Return, error)
	CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error)
	GetReturnByID(ctx context.Context, storeID string, id string) (*domain.Return, error)
	DeleteReturn(ctx context.Context, storeID string, id string) error

	ListVariants(ctx context.Context, storeID string) ([]domain.Variant, error)
	CreateVariant(ctx context.Context, variant domain.Variant) (*domain.Variant, error)
	DeleteVariant(ctx context.Context, storeID string, id string) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
