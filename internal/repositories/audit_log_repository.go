package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// AuditLogFilter narrows audit log queries. Zero values do not filter.
type AuditLogFilter struct {
	ListParams
	UserID     *int64
	Action     string
	ObjectType string
	ObjectID   *int64
	Severity   string
	From       *time.Time
	To         *time.Time
}

// AuditLogRepository is read-only: rows are written by the audit recorder.
type AuditLogRepository interface {
	GetByID(ctx context.Context, id int64) (*models.AuditLog, error)
	List(ctx context.Context, f AuditLogFilter) ([]models.AuditLog, int64, error)
}

type gormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates an AuditLogRepository on db.
func NewGormAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &gormAuditLogRepository{db: db}
}

func (r *gormAuditLogRepository) GetByID(ctx context.Context, id int64) (*models.AuditLog, error) {
	var row models.AuditLog
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *gormAuditLogRepository) filtered(ctx context.Context, f AuditLogFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		tx = tx.Where("action = ?", f.Action)
	}
	if f.ObjectType != "" {
		tx = tx.Where("object_type = ?", f.ObjectType)
	}
	if f.ObjectID != nil {
		tx = tx.Where("object_id = ?", *f.ObjectID)
	}
	if f.Severity != "" {
		tx = tx.Where("severity = ?", f.Severity)
	}
	if f.From != nil {
		tx = tx.Where("timestamp >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("timestamp <= ?", *f.To)
	}
	if f.Search != "" {
		term := "%" + f.Search + "%"
		tx = tx.Where("object_repr LIKE ? OR notes LIKE ?", term, term)
	}
	return tx
}

func (r *gormAuditLogRepository) List(ctx context.Context, f AuditLogFilter) ([]models.AuditLog, int64, error) {
	f.ListParams = f.ListParams.Normalize()
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.AuditLog
	err := r.filtered(ctx, f).
		Order("timestamp " + f.SortOrder + ", id " + f.SortOrder).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&rows).Error
	return rows, total, err
}
