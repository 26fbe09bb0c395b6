package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// ServiceMemberFilter narrows member queries.
type ServiceMemberFilter struct {
	ListParams
	Status  string
	RankID  int64
	UnitIDs []int64
}

// RankCount is one row of RankCounts.
type RankCount struct {
	RankID int64  `json:"rankId"`
	Rank   string `json:"rank" gorm:"column:rank_name"`
	Count  int64  `json:"count"`
}

// ServiceMemberRepository defines read access to service members. Writes go
// through the audit recorder.
type ServiceMemberRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ServiceMember, error)
	GetByTaxID(ctx context.Context, taxID string) (*models.ServiceMember, error)
	GetByPositionID(ctx context.Context, positionID int64) (*models.ServiceMember, error)
	List(ctx context.Context, f ServiceMemberFilter) ([]models.ServiceMember, int64, error)
	FindAll(ctx context.Context, f ServiceMemberFilter) ([]models.ServiceMember, error)
	CountByRank(ctx context.Context, rankID int64) (int64, error)
	// RankCounts counts members per rank, in rank sort order
	RankCounts(ctx context.Context) ([]RankCount, error)
	// DeleteOwned removes the rows a member owns: position history, service
	// history events and contracts.
	DeleteOwned(ctx context.Context, memberID int64) error
}

type gormServiceMemberRepository struct {
	db *gorm.DB
}

// NewGormServiceMemberRepository creates a ServiceMemberRepository on db (or a transaction).
func NewGormServiceMemberRepository(db *gorm.DB) ServiceMemberRepository {
	return &gormServiceMemberRepository{db: db}
}

func (r *gormServiceMemberRepository) withDetail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Rank").
		Preload("Position").
		Preload("Position.Unit").
		Preload("Position.Specialty")
}

func (r *gormServiceMemberRepository) GetByID(ctx context.Context, id int64) (*models.ServiceMember, error) {
	var m models.ServiceMember
	if err := r.withDetail(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *gormServiceMemberRepository) GetByTaxID(ctx context.Context, taxID string) (*models.ServiceMember, error) {
	var m models.ServiceMember
	if err := r.withDetail(ctx).Where("tax_id_number = ?", taxID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *gormServiceMemberRepository) GetByPositionID(ctx context.Context, positionID int64) (*models.ServiceMember, error) {
	var m models.ServiceMember
	if err := r.withDetail(ctx).Where("position_id = ?", positionID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *gormServiceMemberRepository) filtered(ctx context.Context, f ServiceMemberFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.ServiceMember{})
	if f.Search != "" {
		term := "%" + f.Search + "%"
		tx = tx.Where(
			"service_members.last_name LIKE ? OR service_members.first_name LIKE ? OR service_members.middle_name LIKE ? OR service_members.tax_id_number LIKE ?",
			term, term, term, term,
		)
	}
	if f.Status != "" {
		tx = tx.Where("service_members.status = ?", f.Status)
	}
	if f.RankID != 0 {
		tx = tx.Where("service_members.rank_id = ?", f.RankID)
	}
	if len(f.UnitIDs) > 0 {
		tx = tx.Joins("JOIN positions ON positions.id = service_members.position_id").
			Where("positions.unit_id IN ?", f.UnitIDs)
	}
	return tx
}

func (r *gormServiceMemberRepository) List(ctx context.Context, f ServiceMemberFilter) ([]models.ServiceMember, int64, error) {
	f.ListParams = f.ListParams.Normalize()
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	allowed := map[string]string{
		"id":        "service_members.id",
		"lastName":  "service_members.last_name",
		"status":    "service_members.status",
		"createdAt": "service_members.created_at",
		"rank":      "service_members.rank_id",
	}
	var members []models.ServiceMember
	err := r.filtered(ctx, f).
		Preload("Rank").Preload("Position").Preload("Position.Unit").
		Order(orderClause(f.ListParams, allowed, "service_members.id")).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&members).Error
	return members, total, err
}

func (r *gormServiceMemberRepository) FindAll(ctx context.Context, f ServiceMemberFilter) ([]models.ServiceMember, error) {
	var members []models.ServiceMember
	err := r.filtered(ctx, f).
		Preload("Rank").Preload("Position").Preload("Position.Unit").
		Order("service_members.id").
		Find(&members).Error
	return members, err
}

func (r *gormServiceMemberRepository) CountByRank(ctx context.Context, rankID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ServiceMember{}).Where("rank_id = ?", rankID).Count(&n).Error
	return n, err
}

func (r *gormServiceMemberRepository) RankCounts(ctx context.Context) ([]RankCount, error) {
	var rows []RankCount
	err := r.db.WithContext(ctx).Model(&models.ServiceMember{}).
		Select("ranks.id AS rank_id, ranks.name AS rank_name, COUNT(service_members.id) AS count").
		Joins("JOIN ranks ON ranks.id = service_members.rank_id").
		Group("ranks.id, ranks.name, ranks.sort_order").
		Order("ranks.sort_order, ranks.id").
		Scan(&rows).Error
	return rows, err
}

func (r *gormServiceMemberRepository) DeleteOwned(ctx context.Context, memberID int64) error {
	tx := r.db.WithContext(ctx)
	for _, owned := range []any{&models.PositionHistory{}, &models.ServiceHistoryEvent{}, &models.Contract{}} {
		if err := tx.Where("service_member_id = ?", memberID).Delete(owned).Error; err != nil {
			return err
		}
	}
	return nil
}
