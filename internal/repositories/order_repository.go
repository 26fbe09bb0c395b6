package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// OrderFilter narrows order queries.
type OrderFilter struct {
	ListParams
	Status    string
	OrderType string
}

// OrderRepository defines read access to orders and their actions. Writes go
// through the audit recorder.
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	// GetForExecution loads the order and its actions; on postgres the order row is locked
	GetForExecution(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)
	GetAction(ctx context.Context, orderID, actionID int64) (*models.OrderAction, error)
	// PendingActions returns actions not yet executed, in insertion order
	PendingActions(ctx context.Context, orderID int64) ([]models.OrderAction, error)
}

type gormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates an OrderRepository on db (or a transaction).
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB { return db.Order("order_actions.id") }).
		Preload("Actions.ServiceMember").
		Preload("Actions.ServiceMember.Rank").
		First(&o, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *gormOrderRepository) GetForExecution(ctx context.Context, id int64) (*models.Order, error) {
	tx := r.db.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		tx = tx.Set("gorm:query_option", "FOR UPDATE")
	}
	var o models.Order
	if err := tx.First(&o, id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *gormOrderRepository) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Search != "" {
		term := "%" + f.Search + "%"
		tx = tx.Where("order_number LIKE ? OR issuing_authority LIKE ?", term, term)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.OrderType != "" {
		tx = tx.Where("order_type = ?", f.OrderType)
	}
	return tx
}

func (r *gormOrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	f.ListParams = f.ListParams.Normalize()
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	allowed := map[string]string{
		"id":          "id",
		"orderNumber": "order_number",
		"orderDate":   "order_date",
		"status":      "status",
		"createdAt":   "created_at",
	}
	var orders []models.Order
	err := r.filtered(ctx, f).
		Order(orderClause(f.ListParams, allowed, "order_date")).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *gormOrderRepository) GetAction(ctx context.Context, orderID, actionID int64) (*models.OrderAction, error) {
	var a models.OrderAction
	err := r.db.WithContext(ctx).Where("order_id = ? AND id = ?", orderID, actionID).First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormOrderRepository) PendingActions(ctx context.Context, orderID int64) ([]models.OrderAction, error) {
	var actions []models.OrderAction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND execution_status = ?", orderID, false).
		Order("id").
		Find(&actions).Error
	return actions, err
}
