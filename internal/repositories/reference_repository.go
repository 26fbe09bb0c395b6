package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// ErrRankNameExists is returned when a rank with the same name exists.
var ErrRankNameExists = errors.New("rank name already exists")

// ErrSpecialtyCodeExists is returned when a specialty with the same code exists.
var ErrSpecialtyCodeExists = errors.New("military specialty code already exists")

// ReferenceRepository covers the small reference tables: ranks, units and
// military specialties.
type ReferenceRepository interface {
	CreateRank(ctx context.Context, rank *models.Rank) error
	GetRank(ctx context.Context, id int64) (*models.Rank, error)
	GetRankByName(ctx context.Context, name string) (*models.Rank, error)
	ListRanks(ctx context.Context) ([]models.Rank, error)

	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, id int64) (*models.Unit, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)

	CreateSpecialty(ctx context.Context, s *models.MilitarySpecialty) error
	GetSpecialty(ctx context.Context, id int64) (*models.MilitarySpecialty, error)
	ListSpecialties(ctx context.Context) ([]models.MilitarySpecialty, error)
}

type gormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a ReferenceRepository on db (or a transaction).
func NewGormReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &gormReferenceRepository{db: db}
}

func (r *gormReferenceRepository) CreateRank(ctx context.Context, rank *models.Rank) error {
	if err := r.db.WithContext(ctx).Create(rank).Error; err != nil {
		if isUniqueViolation(err, "ranks.name") {
			return ErrRankNameExists
		}
		return err
	}
	return nil
}

func (r *gormReferenceRepository) GetRank(ctx context.Context, id int64) (*models.Rank, error) {
	var rank models.Rank
	if err := r.db.WithContext(ctx).First(&rank, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rank, nil
}

func (r *gormReferenceRepository) GetRankByName(ctx context.Context, name string) (*models.Rank, error) {
	var rank models.Rank
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&rank).Error; err != nil {
		return nil, translate(err)
	}
	return &rank, nil
}

func (r *gormReferenceRepository) ListRanks(ctx context.Context) ([]models.Rank, error) {
	var ranks []models.Rank
	err := r.db.WithContext(ctx).Order("sort_order, name").Find(&ranks).Error
	return ranks, err
}

func (r *gormReferenceRepository) CreateUnit(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Omit("Parent").Create(unit).Error
}

func (r *gormReferenceRepository) GetUnit(ctx context.Context, id int64) (*models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *gormReferenceRepository) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).Order("name").Find(&units).Error
	return units, err
}

func (r *gormReferenceRepository) CreateSpecialty(ctx context.Context, s *models.MilitarySpecialty) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err, "military_specialties.code") {
			return ErrSpecialtyCodeExists
		}
		return err
	}
	return nil
}

func (r *gormReferenceRepository) GetSpecialty(ctx context.Context, id int64) (*models.MilitarySpecialty, error) {
	var s models.MilitarySpecialty
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *gormReferenceRepository) ListSpecialties(ctx context.Context) ([]models.MilitarySpecialty, error) {
	var list []models.MilitarySpecialty
	err := r.db.WithContext(ctx).Order("code").Find(&list).Error
	return list, err
}
