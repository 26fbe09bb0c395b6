package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// ErrNoOpenTenure means the member has no position history row with a null end date.
var ErrNoOpenTenure = errors.New("no open position history row")

// PositionHistoryRepository defines access to position tenures.
type PositionHistoryRepository interface {
	// Create opens a tenure row
	Create(ctx context.Context, row *models.PositionHistory) error
	// GetOpen returns the member's tenure with a null end date
	GetOpen(ctx context.Context, memberID int64) (*models.PositionHistory, error)
	// Close sets the end date of one tenure
	Close(ctx context.Context, id int64, endDate time.Time) error
	// CountOpen counts the member's tenures with a null end date
	CountOpen(ctx context.Context, memberID int64) (int64, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.PositionHistory, error)
	ExistsForPosition(ctx context.Context, positionID int64) (bool, error)
}

type gormPositionHistoryRepository struct {
	db *gorm.DB
}

// NewGormPositionHistoryRepository creates a PositionHistoryRepository on db (or a transaction).
func NewGormPositionHistoryRepository(db *gorm.DB) PositionHistoryRepository {
	return &gormPositionHistoryRepository{db: db}
}

func (r *gormPositionHistoryRepository) Create(ctx context.Context, row *models.PositionHistory) error {
	return r.db.WithContext(ctx).Omit("Position").Create(row).Error
}

func (r *gormPositionHistoryRepository) GetOpen(ctx context.Context, memberID int64) (*models.PositionHistory, error) {
	var row models.PositionHistory
	err := r.db.WithContext(ctx).
		Where("service_member_id = ? AND end_date IS NULL", memberID).
		Order("start_date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenTenure
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *gormPositionHistoryRepository) Close(ctx context.Context, id int64, endDate time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.PositionHistory{}).
		Where("id = ? AND end_date IS NULL", id).
		Update("end_date", endDate)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoOpenTenure
	}
	return nil
}

func (r *gormPositionHistoryRepository) CountOpen(ctx context.Context, memberID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PositionHistory{}).
		Where("service_member_id = ? AND end_date IS NULL", memberID).
		Count(&n).Error
	return n, err
}

func (r *gormPositionHistoryRepository) ListByMember(ctx context.Context, memberID int64) ([]models.PositionHistory, error) {
	var rows []models.PositionHistory
	err := r.db.WithContext(ctx).
		Preload("Position").Preload("Position.Unit").
		Where("service_member_id = ?", memberID).
		Order("start_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *gormPositionHistoryRepository) ExistsForPosition(ctx context.Context, positionID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PositionHistory{}).
		Where("position_id = ?", positionID).
		Count(&n).Error
	return n > 0, err
}
