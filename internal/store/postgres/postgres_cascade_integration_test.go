package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/store"
)

func TestProductCascadeDeleteRemovesLedgerRows(t *testing.T) {
	databaseURL := os.Getenv("DUKKAN_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DUKKAN_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prd-cascade-it-%d", stamp)
	storeID := "akcher"

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM returns WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.CreateProduct(ctx, domain.Product{
		ID:       productID,
		StoreID:  storeID,
		Name:     fmt.Sprintf("Produit cascade %d", stamp),
		Price:    decimal.NewFromInt(1500),
		Quantity: 10,
	}); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.CreateSale(ctx, domain.Sale{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  2,
		Price:     decimal.NewFromInt(1500),
	}); err != nil {
		t.Fatalf("insert sale: %v", err)
	}
	if _, err := s.CreateReturn(ctx, domain.Return{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  1,
		Price:     decimal.NewFromInt(1500),
	}); err != nil {
		t.Fatalf("insert return: %v", err)
	}

	salesDeleted, returnsDeleted, err := s.DeleteProductCascade(ctx, storeID, productID)
	if err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if salesDeleted != 1 || returnsDeleted != 1 {
		t.Fatalf("expected 1 sale and 1 return deleted, got %d and %d", salesDeleted, returnsDeleted)
	}

	if _, err := s.GetProductByID(ctx, storeID, productID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected product gone after cascade, got err=%v", err)
	}

	var orphans int
	if err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM sales WHERE product_id = $1)
			+ (SELECT COUNT(*) FROM returns WHERE product_id = $1)
	`, productID).Scan(&orphans); err != nil {
		t.Fatalf("query orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected no orphaned ledger rows, got %d", orphans)
	}
}

func TestAdjustProductQuantityRefusesNegativeBalance(t *testing.T) {
	databaseURL := os.Getenv("DUKKAN_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set DUKKAN_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prd-adjust-it-%d", stamp)
	storeID := "akcher"

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.CreateProduct(ctx, domain.Product{
		ID:       productID,
		StoreID:  storeID,
		Name:     fmt.Sprintf("Produit ajustement %d", stamp),
		Price:    decimal.NewFromInt(900),
		Quantity: 3,
	}); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.AdjustProductQuantity(ctx, storeID, productID, -5); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	updated, err := s.AdjustProductQuantity(ctx, storeID, productID, -3)
	if err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	if updated.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", updated.Quantity)
	}
}
