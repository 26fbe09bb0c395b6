package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// ServiceHistoryEventRepository defines access to the append-only event log.
type ServiceHistoryEventRepository interface {
	Create(ctx context.Context, event *models.ServiceHistoryEvent) error
	ListByMember(ctx context.Context, memberID int64) ([]models.ServiceHistoryEvent, error)
	// ListInPeriod returns events with from <= event_date <= to, newest first
	ListInPeriod(ctx context.Context, from, to time.Time, eventType string) ([]models.ServiceHistoryEvent, error)
}

type gormServiceHistoryEventRepository struct {
	db *gorm.DB
}

// NewGormServiceHistoryEventRepository creates a ServiceHistoryEventRepository on db (or a transaction).
func NewGormServiceHistoryEventRepository(db *gorm.DB) ServiceHistoryEventRepository {
	return &gormServiceHistoryEventRepository{db: db}
}

func (r *gormServiceHistoryEventRepository) Create(ctx context.Context, event *models.ServiceHistoryEvent) error {
	return r.db.WithContext(ctx).Omit("ServiceMember").Create(event).Error
}

func (r *gormServiceHistoryEventRepository) ListByMember(ctx context.Context, memberID int64) ([]models.ServiceHistoryEvent, error) {
	var events []models.ServiceHistoryEvent
	err := r.db.WithContext(ctx).
		Where("service_member_id = ?", memberID).
		Order("event_date DESC, id DESC").
		Find(&events).Error
	return events, err
}

func (r *gormServiceHistoryEventRepository) ListInPeriod(ctx context.Context, from, to time.Time, eventType string) ([]models.ServiceHistoryEvent, error) {
	tx := r.db.WithContext(ctx).
		Preload("ServiceMember").Preload("ServiceMember.Rank").
		Where("event_date >= ? AND event_date <= ?", from, to)
	if eventType != "" {
		tx = tx.Where("event_type = ?", eventType)
	}
	var events []models.ServiceHistoryEvent
	err := tx.Order("event_date DESC, id DESC").Find(&events).Error
	return events, err
}
