package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/store"
	"dukkan/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, COALESCE(category_id,''), price, quantity, created_at, updated_at
		FROM products
		WHERE store_id = $1
		ORDER BY name ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.CategoryID, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.StoreID) == "" || strings.TrimSpace(product.Name) == "" {
		return nil, store.ErrInvalidTransaction
	}
	if product.Price.IsNegative() || product.Quantity < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, store_id, name, category_id, price, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.StoreID, product.Name, nullIfEmpty(product.CategoryID), product.Price, product.Quantity, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, storeID string, id string) (*domain.Product, error) {
	return s.getProduct(ctx, `
		SELECT id, store_id, name, COALESCE(category_id,''), price, quantity, created_at, updated_at
		FROM products
		WHERE store_id = $1 AND id = $2
	`, storeID, id)
}

func (s *Store) GetProductByName(ctx context.Context, storeID string, name string) (*domain.Product, error) {
	return s.getProduct(ctx, `
		SELECT id, store_id, name, COALESCE(category_id,''), price, quantity, created_at, updated_at
		FROM products
		WHERE store_id = $1 AND name = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, storeID, name)
}

func (s *Store) getProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.StoreID, &p.Name, &p.CategoryID, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.Price.IsNegative() || product.Quantity < 0 {
		return nil, store.ErrInvalidTransaction
	}

	var updated domain.Product
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $3, category_id = $4, price = $5, quantity = $6, updated_at = now()
		WHERE store_id = $1 AND id = $2
		RETURNING id, store_id, name, COALESCE(category_id,''), price, quantity, created_at, updated_at
	`, product.StoreID, product.ID, product.Name, nullIfEmpty(product.CategoryID), product.Price, product.Quantity).Scan(
		&updated.ID, &updated.StoreID, &updated.Name, &updated.CategoryID, &updated.Price, &updated.Quantity, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	updated.UpdatedAt = updated.UpdatedAt.UTC()
	return &updated, nil
}

func (s *Store) AdjustProductQuantity(ctx context.Context, storeID string, id string, delta int) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int
	err = tx.QueryRowContext(ctx, `
		SELECT quantity
		FROM products
		WHERE store_id = $1 AND id = $2
		FOR UPDATE
	`, storeID, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if current+delta < 0 {
		return nil, store.ErrInsufficientStock
	}

	var updated domain.Product
	err = tx.QueryRowContext(ctx, `
		UPDATE products
		SET quantity = quantity + $3, updated_at = now()
		WHERE store_id = $1 AND id = $2
		RETURNING id, store_id, name, COALESCE(category_id,''), price, quantity, created_at, updated_at
	`, storeID, id, delta).Scan(
		&updated.ID, &updated.StoreID, &updated.Name, &updated.CategoryID, &updated.Price, &updated.Quantity, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	updated.UpdatedAt = updated.UpdatedAt.UTC()
	return &updated, nil
}

func (s *Store) DeleteProductCascade(ctx context.Context, storeID string, id string) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists string
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM products
		WHERE store_id = $1 AND id = $2
		FOR UPDATE
	`, storeID, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, store.ErrNotFound
		}
		return 0, 0, err
	}

	salesRes, err := tx.ExecContext(ctx, `
		DELETE FROM sales
		WHERE store_id = $1 AND product_id = $2
	`, storeID, id)
	if err != nil {
		return 0, 0, err
	}
	salesDeleted, err := salesRes.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	returnsRes, err := tx.ExecContext(ctx, `
		DELETE FROM returns
		WHERE store_id = $1 AND product_id = $2
	`, storeID, id)
	if err != nil {
		return 0, 0, err
	}
	returnsDeleted, err := returnsRes.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM products
		WHERE store_id = $1 AND id = $2
	`, storeID, id)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return int(salesDeleted), int(returnsDeleted), nil
}

func (s *Store) ListCategories(ctx context.Context, storeID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, color, color_name, created_at, updated_at
		FROM categories
		WHERE store_id = $1
		ORDER BY name ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 32)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Name, &c.Color, &c.ColorName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		c.UpdatedAt = c.UpdatedAt.UTC()
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.StoreID) == "" || strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidTransaction
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, store_id, name, color, color_name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, category.ID, category.StoreID, category.Name, category.Color, category.ColorName, category.CreatedAt, category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}
	created := category
	return &created, nil
}

func (s *Store) GetCategoryByID(ctx context.Context, storeID string, id string) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, color, color_name, created_at, updated_at
		FROM categories
		WHERE store_id = $1 AND id = $2
	`, storeID, id).Scan(&c.ID, &c.StoreID, &c.Name, &c.Color, &c.ColorName, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidTransaction
	}

	var updated domain.Category
	err := s.db.QueryRowContext(ctx, `
		UPDATE categories
		SET name = $3, color = $4, color_name = $5, updated_at = now()
		WHERE store_id = $1 AND id = $2
		RETURNING id, store_id, name, color, color_name, created_at, updated_at
	`, category.StoreID, category.ID, category.Name, category.Color, category.ColorName).Scan(
		&updated.ID, &updated.StoreID, &updated.Name, &updated.Color, &updated.ColorName, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	updated.UpdatedAt = updated.UpdatedAt.UTC()
	return &updated, nil
}

// DeleteCategory removes the category only. Products keep their category_id
// reference; presentation layers fall back to an uncategorized bucket.
func (s *Store) DeleteCategory(ctx context.Context, storeID string, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM categories
		WHERE store_id = $1 AND id = $2
	`, storeID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context, storeID string) ([]domain.Sale, error) {
	return s.listSales(ctx, storeID, time.Time{}, time.Time{})
}

func (s *Store) ListSalesBetween(ctx context.Context, storeID string, from time.Time, to time.Time) ([]domain.Sale, error) {
	return s.listSales(ctx, storeID, from, to)
}

func (s *Store) listSales(ctx context.Context, storeID string, from time.Time, to time.Time) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, product_id, COALESCE(product_name,''), quantity, price, date
		FROM sales
		WHERE store_id = $1
			AND ($2::timestamptz IS NULL OR date >= $2)
			AND ($3::timestamptz IS NULL OR date < $3)
		ORDER BY date ASC, id ASC
	`, storeID, nullZeroTime(from), nullZeroTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.StoreID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.Price, &sale.Date); err != nil {
			return nil, err
		}
		sale.Date = sale.Date.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if strings.TrimSpace(sale.ProductID) == "" || sale.Quantity < 1 || sale.Price.IsNegative() {
		return nil, store.ErrInvalidTransaction
	}
	if sale.ID == "" {
		sale.ID = xid.New("sal")
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, store_id, product_id, product_name, quantity, price, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.StoreID, sale.ProductID, sale.ProductName, sale.Quantity, sale.Price, sale.Date)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, storeID string, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, product_id, COALESCE(product_name,''), quantity, price, date
		FROM sales
		WHERE store_id = $1 AND id = $2
	`, storeID, id).Scan(&sale.ID, &sale.StoreID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.Price, &sale.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.Date = sale.Date.UTC()
	return &sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, storeID string, id string) error {
	return s.deleteByID(ctx, "sales", storeID, id)
}

func (s *Store) ListReturns(ctx context.Context, storeID string) ([]domain.Return, error) {
	return s.listReturns(ctx, storeID, time.Time{}, time.Time{})
}

func (s *Store) ListReturnsBetween(ctx context.Context, storeID string, from time.Time, to time.Time) ([]domain.Return, error) {
	return s.listReturns(ctx, storeID, from, to)
}

func (s *Store) listReturns(ctx context.Context, storeID string, from time.Time, to time.Time) ([]domain.Return, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, product_id, COALESCE(product_name,''), quantity, price, date
		FROM returns
		WHERE store_id = $1
			AND ($2::timestamptz IS NULL OR date >= $2)
			AND ($3::timestamptz IS NULL OR date < $3)
		ORDER BY date ASC, id ASC
	`, storeID, nullZeroTime(from), nullZeroTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := make([]domain.Return, 0, 64)
	for rows.Next() {
		var ret domain.Return
		if err := rows.Scan(&ret.ID, &ret.StoreID, &ret.ProductID, &ret.ProductName, &ret.Quantity, &ret.Price, &ret.Date); err != nil {
			return nil, err
		}
		ret.Date = ret.Date.UTC()
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return returns, nil
}

func (s *Store) CreateReturn(ctx context.Context, ret domain.Return) (*domain.Return, error) {
	if strings.TrimSpace(ret.ProductID) == "" || ret.Quantity < 1 || ret.Price.IsNegative() {
		return nil, store.ErrInvalidTransaction
	}
	if ret.ID == "" {
		ret.ID = xid.New("ret")
	}
	if ret.Date.IsZero() {
		ret.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO returns (id, store_id, product_id, product_name, quantity, price, date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, ret.ID, ret.StoreID, ret.ProductID, ret.ProductName, ret.Quantity, ret.Price, ret.Date)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}
	created := ret
	return &created, nil
}

func (s *Store) GetReturnByID(ctx context.Context, storeID string, id string) (*domain.Return, error) {
	var ret domain.Return
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, product_id, COALESCE(product_name,''), quantity, price, date
		FROM returns
		WHERE store_id = $1 AND id = $2
	`, storeID, id).Scan(&ret.ID, &ret.StoreID, &ret.ProductID, &ret.ProductName, &ret.Quantity, &ret.Price, &ret.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	ret.Date = ret.Date.UTC()
	return &ret, nil
}

func (s *Store) DeleteReturn(ctx context.Context, storeID string, id string) error {
	return s.deleteByID(ctx, "returns", storeID, id)
}

func (s *Store) ListVariants(ctx context.Context, storeID string) ([]domain.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, type, name, hex, value, created_at, updated_at
		FROM variants
		WHERE store_id = $1
		ORDER BY type ASC, name ASC, value ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]domain.Variant, 0, 32)
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.StoreID, &v.Type, &v.Name, &v.Hex, &v.Value, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.CreatedAt = v.CreatedAt.UTC()
		v.UpdatedAt = v.UpdatedAt.UTC()
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return variants, nil
}

func (s *Store) CreateVariant(ctx context.Context, variant domain.Variant) (*domain.Variant, error) {
	if strings.TrimSpace(variant.StoreID) == "" || strings.TrimSpace(variant.Type) == "" {
		return nil, store.ErrInvalidTransaction
	}
	if variant.ID == "" {
		variant.ID = xid.New("var")
	}
	now := time.Now().UTC()
	variant.CreatedAt = now
	variant.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO variants (id, store_id, type, name, hex, value, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, variant.ID, variant.StoreID, variant.Type, variant.Name, variant.Hex, variant.Value, variant.CreatedAt, variant.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}
	created := variant
	return &created, nil
}

func (s *Store) DeleteVariant(ctx context.Context, storeID string, id string) error {
	return s.deleteByID(ctx, "variants", storeID, id)
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StoreID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE store_id = $1
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4
	`, storeID, nullZeroTime(from), nullZeroTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StoreID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidTransaction
	}
	if user.Role == "" {
		user.Role = domain.RoleStaff
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidTransaction
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidTransaction
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// deleteByID removes one row from the named table scoped to the store.
// The table name is always one of our own constants, never user input.
func (s *Store) deleteByID(ctx context.Context, table string, storeID string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE store_id = $1 AND id = $2`, storeID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

// nullZeroTime maps the zero time onto SQL NULL so open range bounds skip
// the comparison entirely.
func nullZeroTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
