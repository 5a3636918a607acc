package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/store"
	"dukkan/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	productsByID    map[string]domain.Product
	categoriesByID  map[string]domain.Category
	salesByID       map[string]domain.Sale
	returnsByID     map[string]domain.Return
	variantsByID    map[string]domain.Variant
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"staff", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New returns an empty in-memory store with only the seed users loaded.
func New() *Store {
	return &Store{
		productsByID:    make(map[string]domain.Product),
		categoriesByID:  make(map[string]domain.Category),
		salesByID:       make(map[string]domain.Sale),
		returnsByID:     make(map[string]domain.Return),
		variantsByID:    make(map[string]domain.Variant),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

// NewSeeded returns a store preloaded with demo catalogue data for the
// default shop.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	categories := []domain.Category{
		{ID: "cat-sandales", StoreID: "akcher", Name: "Sandales", Color: "#005D2F", ColorName: "vert", CreatedAt: now, UpdatedAt: now},
		{ID: "cat-baskets", StoreID: "akcher", Name: "Baskets", Color: "#339a5c", ColorName: "vert clair", CreatedAt: now, UpdatedAt: now},
		{ID: "cat-accessoires", StoreID: "akcher", Name: "Accessoires", Color: "#66b386", ColorName: "menthe", CreatedAt: now, UpdatedAt: now},
	}
	for _, c := range categories {
		s.categoriesByID[c.ID] = c
	}

	products := []domain.Product{
		{ID: "prd-sandale-cuir", StoreID: "akcher", Name: "Sandale cuir", CategoryID: "cat-sandales", Price: decimal.NewFromInt(2500), Quantity: 40, CreatedAt: now, UpdatedAt: now},
		{ID: "prd-sandale-plage", StoreID: "akcher", Name: "Sandale plage", CategoryID: "cat-sandales", Price: decimal.NewFromInt(1200), Quantity: 60, CreatedAt: now, UpdatedAt: now},
		{ID: "prd-basket-blanche", StoreID: "akcher", Name: "Basket blanche", CategoryID: "cat-baskets", Price: decimal.NewFromInt(4800), Quantity: 25, CreatedAt: now, UpdatedAt: now},
		{ID: "prd-basket-running", StoreID: "akcher", Name: "Basket running", CategoryID: "cat-baskets", Price: decimal.NewFromInt(6500), Quantity: 18, CreatedAt: now, UpdatedAt: now},
		{ID: "prd-ceinture", StoreID: "akcher", Name: "Ceinture cuir", CategoryID: "cat-accessoires", Price: decimal.NewFromInt(1800), Quantity: 30, CreatedAt: now, UpdatedAt: now},
		{ID: "prd-lacets", StoreID: "akcher", Name: "Lacets", Price: decimal.NewFromInt(200), Quantity: 100, CreatedAt: now, UpdatedAt: now},
	}
	for _, p := range products {
		s.productsByID[p.ID] = p
	}

	variants := []domain.Variant{
		{ID: "var-noir", StoreID: "akcher", Type: domain.VariantTypeColor, Name: "Noir", Hex: "#000000", CreatedAt: now, UpdatedAt: now},
		{ID: "var-blanc", StoreID: "akcher", Type: domain.VariantTypeColor, Name: "Blanc", Hex: "#FFFFFF", CreatedAt: now, UpdatedAt: now},
		{ID: "var-m", StoreID: "akcher", Type: domain.VariantTypeSize, Name: "M", CreatedAt: now, UpdatedAt: now},
		{ID: "var-42", StoreID: "akcher", Type: domain.VariantTypeShoeSize, Value: 42, CreatedAt: now, UpdatedAt: now},
	}
	for _, v := range variants {
		s.variantsByID[v.ID] = v
	}

	return s
}

func (s *Store) ListProducts(_ context.Context, storeID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		if p.StoreID != storeID {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.StoreID == "" || product.Name == "" || product.Price.IsNegative() || product.Quantity < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if _, exists := s.productsByID[product.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, storeID string, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists || product.StoreID != storeID {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductByName(_ context.Context, storeID string, name string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, product := range s.productsByID {
		if product.StoreID == storeID && product.Name == name {
			copyProduct := product
			return &copyProduct, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Name == "" || product.Price.IsNegative() {
		return nil, store.ErrInvalidTransaction
	}
	existing, exists := s.productsByID[product.ID]
	if !exists || existing.StoreID != product.StoreID {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()

	s.productsByID[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) AdjustProductQuantity(_ context.Context, storeID string, id string, delta int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.productsByID[id]
	if !exists || product.StoreID != storeID {
		return nil, store.ErrNotFound
	}
	next := product.Quantity + delta
	if next < 0 {
		return nil, store.ErrInsufficientStock
	}
	product.Quantity = next
	product.UpdatedAt = time.Now().UTC()

	s.productsByID[id] = product
	adjusted := product
	return &adjusted, nil
}

func (s *Store) DeleteProductCascade(_ context.Context, storeID string, id string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.productsByID[id]
	if !exists || product.StoreID != storeID {
		return 0, 0, store.ErrNotFound
	}

	var salesDeleted, returnsDeleted int
	for saleID, sale := range s.salesByID {
		if sale.StoreID == storeID && sale.ProductID == id {
			delete(s.salesByID, saleID)
			salesDeleted++
		}
	}
	for returnID, ret := range s.returnsByID {
		if ret.StoreID == storeID && ret.ProductID == id {
			delete(s.returnsByID, returnID)
			returnsDeleted++
		}
	}
	delete(s.productsByID, id)

	return salesDeleted, returnsDeleted, nil
}

func (s *Store) ListCategories(_ context.Context, storeID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categoriesByID))
	for _, c := range s.categoriesByID {
		if c.StoreID != storeID {
			continue
		}
		categories = append(categories, c)
	}

	slices.SortFunc(categories, func(a, b domain.Category) int {
		return cmpString(a.Name, b.Name)
	})
	return categories, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.StoreID == "" || category.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if _, exists := s.categoriesByID[category.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	s.categoriesByID[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) GetCategoryByID(_ context.Context, storeID string, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, exists := s.categoriesByID[id]
	if !exists || category.StoreID != storeID {
		return nil, store.ErrNotFound
	}
	copyCategory := category
	return &copyCategory, nil
}

func (s *Store) UpdateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.Name == "" {
		return nil, store.ErrInvalidTransaction
	}
	existing, exists := s.categoriesByID[category.ID]
	if !exists || existing.StoreID != category.StoreID {
		return nil, store.ErrNotFound
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = time.Now().UTC()

	s.categoriesByID[category.ID] = category
	updated := category
	return &updated, nil
}

// DeleteCategory removes only the category. Products keep their category id;
// the ledger renders them as uncategorized from then on.
func (s *Store) DeleteCategory(_ context.Context, storeID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, exists := s.categoriesByID[id]
	if !exists || category.StoreID != storeID {
		return store.ErrNotFound
	}
	delete(s.categoriesByID, id)
	return nil
}

func (s *Store) ListSales(_ context.Context, storeID string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesLocked(storeID, time.Time{}, time.Time{}), nil
}

func (s *Store) ListSalesBetween(_ context.Context, storeID string, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesLocked(storeID, from, to), nil
}

func (s *Store) salesLocked(storeID string, from time.Time, to time.Time) []domain.Sale {
	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if sale.StoreID != storeID || !inRange(sale.Date, from, to) {
			continue
		}
		sales = append(sales, sale)
	}

	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return sales
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.StoreID == "" || sale.ProductID == "" || sale.Quantity < 1 || sale.Price.IsNegative() {
		return nil, store.ErrInvalidTransaction
	}
	if sale.ID == "" {
		sale.ID = xid.New("sal")
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	s.salesByID[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, storeID string, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists || sale.StoreID != storeID {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) DeleteSale(_ context.Context, storeID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists || sale.StoreID != storeID {
		return store.ErrNotFound
	}
	delete(s.salesByID, id)
	return nil
}

func (s *Store) ListReturns(_ context.Context, storeID string) ([]domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returnsLocked(storeID, time.Time{}, time.Time{}), nil
}

func (s *Store) ListReturnsBetween(_ context.Context, storeID string, from time.Time, to time.Time) ([]domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returnsLocked(storeID, from, to), nil
}

func (s *Store) returnsLocked(storeID string, from time.Time, to time.Time) []domain.Return {
	returns := make([]domain.Return, 0, len(s.returnsByID))
	for _, ret := range s.returnsByID {
		if ret.StoreID != storeID || !inRange(ret.Date, from, to) {
			continue
		}
		returns = append(returns, ret)
	}

	slices.SortFunc(returns, func(a, b domain.Return) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return returns
}

func (s *Store) CreateReturn(_ context.Context, ret domain.Return) (*domain.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ret.StoreID == "" || ret.ProductID == "" || ret.Quantity < 1 || ret.Price.IsNegative() {
		return nil, store.ErrInvalidTransaction
	}
	if ret.ID == "" {
		ret.ID = xid.New("ret")
	}
	if _, exists := s.returnsByID[ret.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	if ret.Date.IsZero() {
		ret.Date = time.Now().UTC()
	}

	s.returnsByID[ret.ID] = ret
	created := ret
	return &created, nil
}

func (s *Store) GetReturnByID(_ context.Context, storeID string, id string) (*domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret, exists := s.returnsByID[id]
	if !exists || ret.StoreID != storeID {
		return nil, store.ErrNotFound
	}
	copyReturn := ret
	return &copyReturn, nil
}

func (s *Store) DeleteReturn(_ context.Context, storeID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret, exists := s.returnsByID[id]
	if !exists || ret.StoreID != storeID {
		return store.ErrNotFound
	}
	delete(s.returnsByID, id)
	return nil
}

func (s *Store) ListVariants(_ context.Context, storeID string) ([]domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	variants := make([]domain.Variant, 0, len(s.variantsByID))
	for _, v := range s.variantsByID {
		if v.StoreID != storeID {
			continue
		}
		variants = append(variants, v)
	}

	slices.SortFunc(variants, func(a, b domain.Variant) int {
		if a.Type != b.Type {
			return cmpString(a.Type, b.Type)
		}
		if a.Name != b.Name {
			return cmpString(a.Name, b.Name)
		}
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		default:
			return 0
		}
	})
	return variants, nil
}

func (s *Store) CreateVariant(_ context.Context, variant domain.Variant) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if variant.StoreID == "" || !validVariant(variant) {
		return nil, store.ErrInvalidTransaction
	}
	if variant.ID == "" {
		variant.ID = xid.New("var")
	}
	if _, exists := s.variantsByID[variant.ID]; exists {
		return nil, store.ErrInvalidTransaction
	}
	now := time.Now().UTC()
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = now
	}
	variant.UpdatedAt = now

	s.variantsByID[variant.ID] = variant
	created := variant
	return &created, nil
}

func (s *Store) DeleteVariant(_ context.Context, storeID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, exists := s.variantsByID[id]
	if !exists || variant.StoreID != storeID {
		return store.ErrNotFound
	}
	delete(s.variantsByID, id)
	return nil
}

func validVariant(v domain.Variant) bool {
	switch v.Type {
	case domain.VariantTypeColor:
		return v.Name != "" && v.Hex != ""
	case domain.VariantTypeSize:
		return v.Name != ""
	case domain.VariantTypeShoeSize:
		return v.Value > 0
	default:
		return false
	}
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, limit)
	for _, entry := range s.auditLogs {
		if entry.StoreID != storeID || !inRange(entry.CreatedAt, from, to) {
			continue
		}
		logs = append(logs, entry)
	}

	slices.SortFunc(logs, func(a, b domain.AuditLog) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidTransaction
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidTransaction
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// inRange applies the half-open interval [from, to). Zero bounds are open.
func inRange(at time.Time, from time.Time, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && !at.Before(to) {
		return false
	}
	return true
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
