package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// PositionFilter narrows position queries.
type PositionFilter struct {
	ListParams
	UnitIDs    []int64
	VacantOnly bool
}

// PositionRepository defines read access to positions. Writes go through the
// audit recorder.
type PositionRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Position, error)
	GetByIndex(ctx context.Context, index string) (*models.Position, error)
	List(ctx context.Context, f PositionFilter) ([]models.Position, int64, error)
	FindAll(ctx context.Context, f PositionFilter) ([]models.Position, error)
}

type gormPositionRepository struct {
	db *gorm.DB
}

// NewGormPositionRepository creates a PositionRepository on db (or a transaction).
func NewGormPositionRepository(db *gorm.DB) PositionRepository {
	return &gormPositionRepository{db: db}
}

func (r *gormPositionRepository) withDetail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Unit").
		Preload("Specialty").
		Preload("Occupant").
		Preload("Occupant.Rank")
}

func (r *gormPositionRepository) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	var p models.Position
	if err := r.withDetail(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *gormPositionRepository) GetByIndex(ctx context.Context, index string) (*models.Position, error) {
	var p models.Position
	if err := r.withDetail(ctx).Where("position_index = ?", index).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *gormPositionRepository) filtered(ctx context.Context, f PositionFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Position{})
	if f.Search != "" {
		term := "%" + f.Search + "%"
		tx = tx.Where("positions.name LIKE ? OR positions.position_index LIKE ?", term, term)
	}
	if len(f.UnitIDs) > 0 {
		tx = tx.Where("positions.unit_id IN ?", f.UnitIDs)
	}
	if f.VacantOnly {
		tx = tx.Where("NOT EXISTS (SELECT 1 FROM service_members sm WHERE sm.position_id = positions.id)")
	}
	return tx
}

func (r *gormPositionRepository) List(ctx context.Context, f PositionFilter) ([]models.Position, int64, error) {
	f.ListParams = f.ListParams.Normalize()
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	allowed := map[string]string{
		"id":            "positions.id",
		"name":          "positions.name",
		"positionIndex": "positions.position_index",
		"unit":          "positions.unit_id",
	}
	var positions []models.Position
	err := r.filtered(ctx, f).
		Preload("Unit").Preload("Specialty").Preload("Occupant").Preload("Occupant.Rank").
		Order(orderClause(f.ListParams, allowed, "positions.position_index")).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&positions).Error
	return positions, total, err
}

func (r *gormPositionRepository) FindAll(ctx context.Context, f PositionFilter) ([]models.Position, error) {
	var positions []models.Position
	err := r.filtered(ctx, f).
		Preload("Unit").Preload("Specialty").Preload("Occupant").Preload("Occupant.Rank").
		Order("positions.position_index").
		Find(&positions).Error
	return positions, err
}
