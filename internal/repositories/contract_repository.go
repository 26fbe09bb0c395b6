package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// ContractRepository defines read access to contracts. Writes go through the
// audit recorder.
type ContractRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Contract, error)
	ListByMember(ctx context.Context, memberID int64) ([]models.Contract, error)
	// EndingBetween returns contracts with from <= end_date <= to, soonest first
	EndingBetween(ctx context.Context, from, to time.Time) ([]models.Contract, error)
	// ExpiredBefore returns contracts that ended before at, most recent first
	ExpiredBefore(ctx context.Context, at time.Time, limit int) ([]models.Contract, error)
	CountExpiredBefore(ctx context.Context, at time.Time) (int64, error)
}

type gormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a ContractRepository on db (or a transaction).
func NewGormContractRepository(db *gorm.DB) ContractRepository {
	return &gormContractRepository{db: db}
}

func (r *gormContractRepository) GetByID(ctx context.Context, id int64) (*models.Contract, error) {
	var c models.Contract
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *gormContractRepository) ListByMember(ctx context.Context, memberID int64) ([]models.Contract, error) {
	var list []models.Contract
	err := r.db.WithContext(ctx).Where("service_member_id = ?", memberID).Order("start_date DESC").Find(&list).Error
	return list, err
}

func (r *gormContractRepository) withMember(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("ServiceMember").
		Preload("ServiceMember.Rank").
		Preload("ServiceMember.Position").
		Preload("ServiceMember.Position.Unit")
}

func (r *gormContractRepository) EndingBetween(ctx context.Context, from, to time.Time) ([]models.Contract, error) {
	var list []models.Contract
	err := r.withMember(ctx).
		Where("end_date >= ? AND end_date <= ?", from, to).
		Order("end_date").
		Find(&list).Error
	return list, err
}

func (r *gormContractRepository) ExpiredBefore(ctx context.Context, at time.Time, limit int) ([]models.Contract, error) {
	var list []models.Contract
	err := r.withMember(ctx).
		Where("end_date < ?", at).
		Order("end_date DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *gormContractRepository) CountExpiredBefore(ctx context.Context, at time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Contract{}).Where("end_date < ?", at).Count(&n).Error
	return n, err
}
