package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dukkan/backend/internal/cache"
	"dukkan/backend/internal/domain"
	"dukkan/backend/internal/ledger"
	"dukkan/backend/internal/store"
	"dukkan/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo     store.Repository
	cache    cache.DashboardCache
	storeID  string
	cacheTTL time.Duration
	log      *logrus.Logger
}

func New(repo store.Repository, dashCache cache.DashboardCache, storeID string, cacheTTL time.Duration, log *logrus.Logger) *Service {
	if storeID == "" {
		storeID = "akcher"
	}
	if dashCache == nil {
		dashCache = cache.NoopDashboardCache{}
	}
	if log == nil {
		log = logrus.New()
	}

	return &Service{
		repo:     repo,
		cache:    dashCache,
		storeID:  storeID,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// StoreID returns the store identifier every operation is scoped to.
func (s *Service) StoreID() string {
	return s.storeID
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, s.storeID)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, s.storeID, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price.IsNegative() || req.Quantity < 0 {
		return domain.Product{}, store.ErrInvalidTransaction
	}

	product := domain.Product{
		ID:         xid.New("prd"),
		StoreID:    s.storeID,
		Name:       req.Name,
		CategoryID: strings.TrimSpace(req.CategoryID),
		Price:      req.Price,
		Quantity:   req.Quantity,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%s,quantity=%d", created.Name, created.Price, created.Quantity))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetProductByID(ctx, s.storeID, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		updated.CategoryID = strings.TrimSpace(*req.CategoryID)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Price = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Quantity = *req.Quantity
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	if existing.Quantity != saved.Quantity {
		s.bumpLedgerVersion(ctx)
	}
	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,price=%s,quantity=%d", saved.Name, saved.Price, saved.Quantity))
	return *saved, nil
}

// DeleteProduct removes the product together with every sale and return
// referencing it, so the ledger never keeps lines for a vanished product.
// The store decides whether the cascade runs atomically; partial progress is
// not rolled back and is reported through the returned counts and the audit
// trail.
func (s *Service) DeleteProduct(ctx context.Context, id string) (domain.CascadeDeleteResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.CascadeDeleteResponse{}, fmt.Errorf("admin role required")
	}

	salesDeleted, returnsDeleted, err := s.repo.DeleteProductCascade(ctx, s.storeID, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WithFields(logrus.Fields{
				"product_id":      id,
				"sales_deleted":   salesDeleted,
				"returns_deleted": returnsDeleted,
			}).WithError(err).Error("product cascade delete aborted mid-way")
		}
		return domain.CascadeDeleteResponse{}, err
	}

	s.bumpLedgerVersion(ctx)
	s.logAudit(ctx, "product_cascade_delete", "product", id, fmt.Sprintf("sales_deleted=%d,returns_deleted=%d", salesDeleted, returnsDeleted))
	return domain.CascadeDeleteResponse{
		ProductID:      id,
		SalesDeleted:   salesDeleted,
		ReturnsDeleted: returnsDeleted,
	}, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, s.storeID)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Category{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Category{}, store.ErrInvalidTransaction
	}

	category := domain.Category{
		ID:        xid.New("cat"),
		StoreID:   s.storeID,
		Name:      req.Name,
		Color:     strings.TrimSpace(req.Color),
		ColorName: strings.TrimSpace(req.ColorName),
	}

	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return domain.Category{}, err
	}

	s.logAudit(ctx, "category_create", "category", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, req domain.CategoryUpdateRequest) (domain.Category, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Category{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetCategoryByID(ctx, s.storeID, id)
	if err != nil {
		return domain.Category{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Category{}, store.ErrInvalidTransaction
		}
		updated.Name = name
	}
	if req.Color != nil {
		updated.Color = strings.TrimSpace(*req.Color)
	}
	if req.ColorName != nil {
		updated.ColorName = strings.TrimSpace(*req.ColorName)
	}

	saved, err := s.repo.UpdateCategory(ctx, updated)
	if err != nil {
		return domain.Category{}, err
	}

	s.logAudit(ctx, "category_update", "category", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

// DeleteCategory does not cascade. Products referencing the category keep
// their category id and show up as uncategorized in the statistics.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeleteCategory(ctx, s.storeID, id); err != nil {
		return err
	}

	s.bumpLedgerVersion(ctx)
	s.logAudit(ctx, "category_delete", "category", id, "")
	return nil
}

func (s *Service) ListVariants(ctx context.Context) ([]domain.Variant, error) {
	return s.repo.ListVariants(ctx, s.storeID)
}

func (s *Service) CreateVariant(ctx context.Context, req domain.VariantCreateRequest) (domain.Variant, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Variant{}, fmt.Errorf("admin role required")
	}

	variant := domain.Variant{
		ID:      xid.New("var"),
		StoreID: s.storeID,
		Type:    strings.TrimSpace(req.Type),
		Name:    strings.TrimSpace(req.Name),
		Hex:     strings.TrimSpace(req.Hex),
		Value:   req.Value,
	}

	created, err := s.repo.CreateVariant(ctx, variant)
	if err != nil {
		return domain.Variant{}, err
	}

	s.logAudit(ctx, "variant_create", "variant", created.ID, fmt.Sprintf("type=%s", created.Type))
	return *created, nil
}

func (s *Service) DeleteVariant(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	if err := s.repo.DeleteVariant(ctx, s.storeID, id); err != nil {
		return err
	}

	s.logAudit(ctx, "variant_delete", "variant", id, "")
	return nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, s.storeID)
}

func (s *Service) ListReturns(ctx context.Context) ([]domain.Return, error) {
	return s.repo.ListReturns(ctx, s.storeID)
}

// RecordSale creates a sale and deducts its quantity from the product's
// stock balance. The sale record is written first: if only one of the two
// writes lands, stock is over-reported rather than under-reported.
func (s *Service) RecordSale(ctx context.Context, req domain.TransactionCreateRequest) (domain.Sale, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.Sale{}, fmt.Errorf("authentication required")
	}
	if req.Quantity < 1 || req.Price.IsNegative() {
		return domain.Sale{}, store.ErrInvalidTransaction
	}

	product, err := s.repo.GetProductByID(ctx, s.storeID, req.ProductID)
	if err != nil {
		return domain.Sale{}, err
	}
	if req.Quantity > product.Quantity {
		return domain.Sale{}, store.ErrInsufficientStock
	}

	sale := domain.Sale{
		ID:          xid.New("sal"),
		StoreID:     s.storeID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Date:        s.transactionDate(req.Date),
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	if _, err := s.repo.AdjustProductQuantity(ctx, s.storeID, product.ID, -created.Quantity); err != nil {
		s.logMismatch(err, "sale", created.ID, product.ID, "deduct_stock")
		return domain.Sale{}, fmt.Errorf("sale recorded but stock not deducted: %w", err)
	}

	s.bumpLedgerVersion(ctx)
	s.logAudit(ctx, "sale_record", "sale", created.ID, fmt.Sprintf("product=%s,quantity=%d,price=%s", product.ID, created.Quantity, created.Price))
	return *created, nil
}

// RecordReturn adds the returned quantity back to stock and creates the
// return record. Stock goes up first, for the same over-reporting bias as
// RecordSale. Returns are not matched to an originating sale, so a return
// can exceed what was sold; that looseness is kept on purpose.
func (s *Service) RecordReturn(ctx context.Context, req domain.TransactionCreateRequest) (domain.Return, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.Return{}, fmt.Errorf("authentication required")
	}
	if req.Quantity < 1 || req.Price.IsNegative() {
		return domain.Return{}, store.ErrInvalidTransaction
	}

	product, err := s.repo.GetProductByID(ctx, s.storeID, req.ProductID)
	if err != nil {
		return domain.Return{}, err
	}

	if _, err := s.repo.AdjustProductQuantity(ctx, s.storeID, product.ID, req.Quantity); err != nil {
		return domain.Return{}, err
	}

	ret := domain.Return{
		ID:          xid.New("ret"),
		StoreID:     s.storeID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Date:        s.transactionDate(req.Date),
	}

	created, err := s.repo.CreateReturn(ctx, ret)
	if err != nil {
		s.logMismatch(err, "return", ret.ID, product.ID, "create_record")
		return domain.Return{}, fmt.Errorf("stock restocked but return not recorded: %w", err)
	}

	s.bumpLedgerVersion(ctx)
	s.logAudit(ctx, "return_record", "return", created.ID, fmt.Sprintf("product=%s,quantity=%d,price=%s", product.ID, created.Quantity, created.Price))
	return *created, nil
}

// DeleteSale reverses the sale's stock effect before removing the record.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	sale, err := s.repo.GetSaleByID(ctx, s.storeID, id)
	if err != nil {
		return err
	}
	product, err := s.resolveProduct(ctx, sale.ProductID, sale.ProductName)
	if err != nil {
		return fmt.Errorf("sale %s: %w", id, err)
	}

	if _, err := s.repo.AdjustProductQuantity(ctx, s.storeID, product.ID, sale.Quantity); err != nil {
		return err
	}
	if err := s.repo.DeleteSale(ctx, s.storeID, id); err != nil {
		s.logMismatch(err, "sale", id, product.ID, "delete_record")
		return fmt.Errorf("stock restored but sale not deleted: %w", err)
	}

	s.bumpLedgerVersion(ctx)
	s.logAudit(ctx, "sale_delete", "sale", id, fmt.Sprintf("product=%s,quantity=%d", product.ID, sale.Quantity))
	return nil
}

// DeleteReturn removes the record first, then takes the returned quantity
// back out of stock.
func (s *Service) DeleteReturn(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}

	ret, err := s.repo.GetReturnByID(ctx, s.storeID, id)
	if err != nil {
		return err
	}
	product, err := s.resolveProduct(ctx, ret.ProductID, ret.ProductName)
	if err != nil {
		return fmt.Errorf("return %s: %w", id, err)
	}

	if err := s.repo.DeleteReturn(ctx, s.storeID, id); err != nil {
		return err
	}
	if _, err := s.repo.AdjustProductQuantity(ctx, s.storeID, product.ID, -ret.Quantity); err != nil {
		s.logMismatch(err, "return", id, product.ID, "deduct_stock")
		return fmt.Errorf("return deleted but stock not deducted: %w", err)
	}

	s.bumpLedgerVersion(ctx)
	s.logAudit(ctx, "return_delete", "return", id, fmt.Sprintf("product=%s,quantity=%d", product.ID, ret.Quantity))
	return nil
}

// resolveProduct resolves a ledger record's product by id first, then by the
// recorded name. Historic records written before ids were reliable may only
// carry a name.
func (s *Service) resolveProduct(ctx context.Context, productID string, productName string) (*domain.Product, error) {
	if productID != "" {
		product, err := s.repo.GetProductByID(ctx, s.storeID, productID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if productName != "" {
		product, err := s.repo.GetProductByName(ctx, s.storeID, productName)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("product not found: %w", store.ErrNotFound)
}

// Dashboard computes the day view: revenue, quantities, average basket and
// the chronological ledger for one day.
func (s *Service) Dashboard(ctx context.Context, day time.Time) (domain.DashboardResponse, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.DashboardResponse{}, fmt.Errorf("authentication required")
	}

	key := s.snapshotKey(ctx, "dashboard", day.Format("2006-01-02"))
	if cached, found, err := s.cache.GetDashboard(ctx, key); err == nil && found {
		return *cached, nil
	}

	from, to := ledger.DayRange(day)
	sales, err := s.repo.ListSalesBetween(ctx, s.storeID, from, to)
	if err != nil {
		return domain.DashboardResponse{}, err
	}
	returns, err := s.repo.ListReturnsBetween(ctx, s.storeID, from, to)
	if err != nil {
		return domain.DashboardResponse{}, err
	}
	products, err := s.repo.ListProducts(ctx, s.storeID)
	if err != nil {
		return domain.DashboardResponse{}, err
	}

	resp := domain.DashboardResponse{
		StoreID:       s.storeID,
		Date:          day.Format("2006-01-02"),
		Revenue:       ledger.Revenue(sales, returns),
		SalesQty:      ledger.Units(sales),
		ReturnsQty:    ledger.Units(returns),
		ProductsSold:  ledger.NetQuantity(sales, returns),
		AverageBasket: ledger.AverageBasket(sales),
		Ledger:        ledger.DailyLedger(sales, returns, products, day),
	}

	if err := s.cache.SetDashboard(ctx, key, &resp, s.cacheTTL); err != nil {
		s.log.WithError(err).Debug("dashboard cache set failed")
	}
	return resp, nil
}

// Stats computes the month view plus the 12-bucket annual revenue series.
func (s *Service) Stats(ctx context.Context, year int, month time.Month) (domain.StatsResponse, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.StatsResponse{}, fmt.Errorf("authentication required")
	}

	monthTag := fmt.Sprintf("%04d-%02d", year, month)
	key := s.snapshotKey(ctx, "stats", monthTag)
	if cached, found, err := s.cache.GetStats(ctx, key); err == nil && found {
		return *cached, nil
	}

	yearFrom, yearTo := ledger.YearRange(year, time.UTC)
	sales, err := s.repo.ListSalesBetween(ctx, s.storeID, yearFrom, yearTo)
	if err != nil {
		return domain.StatsResponse{}, err
	}
	returns, err := s.repo.ListReturnsBetween(ctx, s.storeID, yearFrom, yearTo)
	if err != nil {
		return domain.StatsResponse{}, err
	}
	products, err := s.repo.ListProducts(ctx, s.storeID)
	if err != nil {
		return domain.StatsResponse{}, err
	}
	categories, err := s.repo.ListCategories(ctx, s.storeID)
	if err != nil {
		return domain.StatsResponse{}, err
	}

	monthFrom, monthTo := ledger.MonthRange(year, month, time.UTC)
	monthSales := ledger.FilterByRange(sales, monthFrom, monthTo)
	monthReturns := ledger.FilterByRange(returns, monthFrom, monthTo)

	resp := domain.StatsResponse{
		StoreID:       s.storeID,
		Month:         monthTag,
		Revenue:       ledger.Revenue(monthSales, monthReturns),
		SalesQty:      ledger.Units(monthSales),
		ReturnsQty:    ledger.Units(monthReturns),
		ProductsSold:  ledger.NetQuantity(monthSales, monthReturns),
		AverageBasket: ledger.AverageBasket(monthSales),
		ByCategory:    ledger.RevenueByCategory(monthSales, monthReturns, products, categories),
		Year:          year,
		Annual:        ledger.AnnualSeries(sales, returns, year, time.UTC),
	}

	if err := s.cache.SetStats(ctx, key, &resp, s.cacheTTL); err != nil {
		s.log.WithError(err).Debug("stats cache set failed")
	}
	return resp, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, s.storeID, from, to, limit)
}

// transactionDate defaults to now, mirroring server-assigned timestamps.
func (s *Service) transactionDate(requested *time.Time) time.Time {
	if requested != nil && !requested.IsZero() {
		return requested.UTC()
	}
	return time.Now().UTC()
}

func (s *Service) snapshotKey(ctx context.Context, kind string, tag string) string {
	version, err := s.cache.Version(ctx, s.storeID)
	if err != nil {
		s.log.WithError(err).Debug("cache version lookup failed")
	}
	return fmt.Sprintf("%s:%s:v%d:%s", kind, s.storeID, version, tag)
}

func (s *Service) bumpLedgerVersion(ctx context.Context) {
	if err := s.cache.Bump(ctx, s.storeID); err != nil {
		s.log.WithError(err).Debug("ledger version bump failed")
	}
}

// logMismatch records a stock/ledger divergence: one half of a reconciler
// pair landed and the other failed. Operators reconcile these manually.
func (s *Service) logMismatch(err error, recordKind string, recordID string, productID string, step string) {
	s.log.WithFields(logrus.Fields{
		"record_kind": recordKind,
		"record_id":   recordID,
		"product_id":  productID,
		"failed_step": step,
	}).WithError(err).Error("stock ledger mismatch")
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(context.WithoutCancel(ctx), domain.AuditLog{
		ID:            xid.New("aud"),
		StoreID:       s.storeID,
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		s.log.WithError(err).Warn("audit log write failed")
	}
}
