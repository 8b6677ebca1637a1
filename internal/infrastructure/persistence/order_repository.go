package persistence

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/order"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// legacyShapePredicate selects orders still carrying the flat-field shape:
// a step without a status, an item without a priority, or flat fields with
// no structured items at all.
const legacyShapePredicate = `
EXISTS (SELECT 1 FROM order_steps s WHERE s.order_id = orders.id AND s.status = '')
OR EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = orders.id AND i.priority = '')
OR (NOT EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = orders.id)
    AND (orders.legacy_amount <> 0 OR orders.legacy_quantity <> 0 OR orders.legacy_rate <> 0
         OR orders.legacy_remark <> '' OR orders.legacy_priority <> ''))`

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ order.OrderRepository = (*GormOrderRepository)(nil)

// FindByID finds an order by its internal ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var m models.OrderModel
	if err := r.preloaded(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByOrderNumber finds an order by its sequential number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber int64) (*order.Order, error) {
	var m models.OrderModel
	if err := r.preloaded(ctx).First(&m, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDs finds the orders with the given IDs; missing IDs are skipped
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []models.OrderModel
	if err := r.preloaded(ctx).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// FindAll finds orders with filtering and pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var ms []models.OrderModel
	query := applyFilter(r.preloaded(ctx).Model(&models.OrderModel{}), filter, "paid_by", "legacy_remark")
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// FindNeedingMigration finds a batch of orders still in the legacy shape
func (r *GormOrderRepository) FindNeedingMigration(ctx context.Context, limit int) ([]order.Order, error) {
	var ms []models.OrderModel
	if err := r.preloaded(ctx).
		Where(legacyShapePredicate).
		Order("order_number asc").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(ms), nil
}

// Save creates or updates an order together with its owned collections
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	m := models.OrderModelFromDomain(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, m)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with an optimistic version check
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	currentVersion := o.Version
	m := models.OrderModelFromDomain(o)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", m.ID, currentVersion).
			Updates(map[string]interface{}{
				"customer_id":      m.CustomerID,
				"sale_subtotal":    m.SaleSubtotal,
				"steps_cost_total": m.StepsCostTotal,
				"bill_status":      m.BillStatus,
				"paid_by":          m.PaidBy,
				"paid_at":          m.PaidAt,
				"paid_ledger_id":   m.PaidLedgerID,
				"legacy_amount":    m.LegacyAmount,
				"legacy_quantity":  m.LegacyQuantity,
				"legacy_rate":      m.LegacyRate,
				"legacy_remark":    m.LegacyRemark,
				"legacy_priority":  m.LegacyPriority,
				"version":          currentVersion + 1,
				"updated_at":       now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.saveChildren(tx, m)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}

	o.Version = currentVersion + 1
	return nil
}

// saveChildren replaces the order's owned rows with the current state.
// Steps and items keep their stable IDs; status entries are append-only and
// rewritten wholesale.
func (r *GormOrderRepository) saveChildren(tx *gorm.DB, m *models.OrderModel) error {
	if err := tx.Where("order_id = ?", m.ID).Delete(&models.StatusEntryModel{}).Error; err != nil {
		return err
	}
	for i := range m.StatusHistory {
		m.StatusHistory[i].OrderID = m.ID
		if err := tx.Create(&m.StatusHistory[i]).Error; err != nil {
			return err
		}
	}

	stepIDs := make([]uuid.UUID, len(m.Steps))
	for i, s := range m.Steps {
		stepIDs[i] = s.ID
	}
	if len(stepIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", m.ID, stepIDs).
			Delete(&models.StepModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", m.ID).Delete(&models.StepModel{}).Error; err != nil {
			return err
		}
	}
	for i := range m.Steps {
		m.Steps[i].OrderID = m.ID
		if err := tx.Save(&m.Steps[i]).Error; err != nil {
			return err
		}
	}

	itemIDs := make([]uuid.UUID, len(m.Items))
	for i, it := range m.Items {
		itemIDs[i] = it.ID
	}
	if len(itemIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", m.ID, itemIDs).
			Delete(&models.ItemModel{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("order_id = ?", m.ID).Delete(&models.ItemModel{}).Error; err != nil {
			return err
		}
	}
	for i := range m.Items {
		m.Items[i].OrderID = m.ID
		if err := tx.Save(&m.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// NextOrderNumber allocates the next sequential order number (max+1).
// The unique index on order_number backs this up: a concurrent allocation of
// the same number fails at save time with shared.ErrAlreadyExists.
func (r *GormOrderRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("COALESCE(MAX(order_number), 0) + 1").
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applySearch(r.db.WithContext(ctx).Model(&models.OrderModel{}), filter, "paid_by", "legacy_remark")
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// preloaded returns a query with the owned collections loaded
func (r *GormOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number asc")
		}).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		})
}

func toDomainOrders(ms []models.OrderModel) []order.Order {
	orders := make([]order.Order, len(ms))
	for i := range ms {
		orders[i] = *ms[i].ToDomain()
	}
	return orders
}

// applyFilter applies search, pagination and ordering to a query
func applyFilter(query *gorm.DB, filter shared.Filter, textColumns ...string) *gorm.DB {
	query = applySearch(query, filter, textColumns...)

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" {
		orderDir = "desc"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// applySearch applies the filter map and free-text search to a query.
// A numeric search term matches the order number exactly; anything else
// matches the given text columns case-insensitively.
func applySearch(query *gorm.DB, filter shared.Filter, textColumns ...string) *gorm.DB {
	for key, value := range filter.Filters {
		query = query.Where(key+" = ?", value)
	}

	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return query
	}
	if n, err := strconv.ParseInt(search, 10, 64); err == nil {
		return query.Where("order_number = ?", n)
	}
	if len(textColumns) == 0 {
		return query
	}
	conds := make([]string, len(textColumns))
	args := make([]interface{}, len(textColumns))
	for i, col := range textColumns {
		conds[i] = col + " ILIKE ?"
		args[i] = "%" + search + "%"
	}
	return query.Where(strings.Join(conds, " OR "), args...)
}
