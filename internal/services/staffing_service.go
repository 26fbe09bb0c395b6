package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
)

// StaffingService manages the staffing table: ranks, units, specialties and positions.
type StaffingService interface {
	ListRanks(ctx context.Context) ([]models.Rank, error)
	CreateRank(ctx context.Context, actx audit.Context, payload models.RankPayload) (*models.Rank, error)
	DeleteRank(ctx context.Context, actx audit.Context, id int64) error

	ListUnits(ctx context.Context) ([]models.Unit, error)
	UnitTree(ctx context.Context) ([]*models.UnitNode, error)
	CreateUnit(ctx context.Context, actx audit.Context, payload models.UnitPayload) (*models.Unit, error)
	// UnitScope returns the unit and all of its descendants.
	UnitScope(ctx context.Context, unitID int64) ([]int64, error)

	ListSpecialties(ctx context.Context) ([]models.MilitarySpecialty, error)
	CreateSpecialty(ctx context.Context, actx audit.Context, payload models.SpecialtyPayload) (*models.MilitarySpecialty, error)

	CreatePosition(ctx context.Context, actx audit.Context, payload models.PositionPayload) (*models.Position, error)
	GetPosition(ctx context.Context, id int64) (*models.Position, error)
	ListPositions(ctx context.Context, filter repositories.PositionFilter) ([]models.Position, int64, error)
	UpdatePosition(ctx context.Context, actx audit.Context, id int64, payload models.PositionUpdatePayload) (*models.Position, error)
	// DeletePosition refuses positions that are held or appear in position history.
	DeletePosition(ctx context.Context, actx audit.Context, id int64) error
	VacantPositions(ctx context.Context, unitID int64) ([]models.Position, error)
}

type staffingService struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewStaffingService creates a StaffingService.
func NewStaffingService(db *gorm.DB, recorder *audit.Recorder) StaffingService {
	return &staffingService{db: db, recorder: recorder}
}

func (s *staffingService) ListRanks(ctx context.Context) ([]models.Rank, error) {
	return repositories.NewGormReferenceRepository(s.db).ListRanks(ctx)
}

func (s *staffingService) CreateRank(ctx context.Context, actx audit.Context, payload models.RankPayload) (*models.Rank, error) {
	rank := &models.Rank{Name: strings.TrimSpace(payload.Name), SortOrder: payload.SortOrder}
	if rank.Name == "" {
		return nil, fmt.Errorf("%w: rank name is required", ErrValidationInput)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recorder.Save(tx, actx, rank)
	})
	if repositories.IsUniqueViolation(err, "ranks.name") {
		return nil, fmt.Errorf("%w: %v", ErrConflict, repositories.ErrRankNameExists)
	}
	if err != nil {
		return nil, err
	}
	return rank, nil
}

func (s *staffingService) DeleteRank(ctx context.Context, actx audit.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rank, err := repositories.NewGormReferenceRepository(tx).GetRank(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrRankNotFound
		} else if err != nil {
			return err
		}
		n, err := repositories.NewGormServiceMemberRepository(tx).CountByRank(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRankInUse
		}
		return s.recorder.Delete(tx, actx, rank)
	})
}

func (s *staffingService) ListUnits(ctx context.Context) ([]models.Unit, error) {
	return repositories.NewGormReferenceRepository(s.db).ListUnits(ctx)
}

func (s *staffingService) UnitTree(ctx context.Context) ([]*models.UnitNode, error) {
	units, err := s.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	return models.BuildUnitTree(units), nil
}

func (s *staffingService) CreateUnit(ctx context.Context, actx audit.Context, payload models.UnitPayload) (*models.Unit, error) {
	unit := &models.Unit{Name: strings.TrimSpace(payload.Name), ParentID: payload.ParentID}
	if unit.Name == "" {
		return nil, fmt.Errorf("%w: unit name is required", ErrValidationInput)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if unit.ParentID != nil {
			_, err := repositories.NewGormReferenceRepository(tx).GetUnit(ctx, *unit.ParentID)
			if errors.Is(err, repositories.ErrRecordNotFound) {
				return &ReferenceError{Kind: "unit", ID: *unit.ParentID}
			} else if err != nil {
				return err
			}
		}
		return s.recorder.Save(tx, actx, unit)
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *staffingService) UnitScope(ctx context.Context, unitID int64) ([]int64, error) {
	units, err := s.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range units {
		if u.ID == unitID {
			return models.DescendantIDs(units, unitID), nil
		}
	}
	return nil, ErrUnitNotFound
}

func (s *staffingService) ListSpecialties(ctx context.Context) ([]models.MilitarySpecialty, error) {
	return repositories.NewGormReferenceRepository(s.db).ListSpecialties(ctx)
}

func (s *staffingService) CreateSpecialty(ctx context.Context, actx audit.Context, payload models.SpecialtyPayload) (*models.MilitarySpecialty, error) {
	specialty := &models.MilitarySpecialty{Code: strings.TrimSpace(payload.Code), Name: strings.TrimSpace(payload.Name)}
	if specialty.Code == "" || specialty.Name == "" {
		return nil, fmt.Errorf("%w: specialty code and name are required", ErrValidationInput)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recorder.Save(tx, actx, specialty)
	})
	if repositories.IsUniqueViolation(err, "military_specialties.code") {
		return nil, fmt.Errorf("%w: %v", ErrConflict, repositories.ErrSpecialtyCodeExists)
	}
	if err != nil {
		return nil, err
	}
	return specialty, nil
}

// checkPositionRefs verifies the unit and specialty a position points at.
func checkPositionRefs(ctx context.Context, tx *gorm.DB, unitID int64, specialtyID *int64) error {
	refs := repositories.NewGormReferenceRepository(tx)
	if _, err := refs.GetUnit(ctx, unitID); errors.Is(err, repositories.ErrRecordNotFound) {
		return &ReferenceError{Kind: "unit", ID: unitID}
	} else if err != nil {
		return err
	}
	if specialtyID != nil {
		if _, err := refs.GetSpecialty(ctx, *specialtyID); errors.Is(err, repositories.ErrRecordNotFound) {
			return &ReferenceError{Kind: "military specialty", ID: *specialtyID}
		} else if err != nil {
			return err
		}
	}
	return nil
}

func savePosition(tx *gorm.DB, recorder *audit.Recorder, actx audit.Context, p *models.Position) error {
	err := recorder.Save(tx, actx, p)
	if repositories.IsUniqueViolation(err, "positions.position_index") {
		return ErrPositionIndexExists
	}
	return err
}

func (s *staffingService) CreatePosition(ctx context.Context, actx audit.Context, payload models.PositionPayload) (*models.Position, error) {
	p := &models.Position{
		UnitID:        payload.UnitID,
		PositionIndex: strings.TrimSpace(payload.PositionIndex),
		Name:          strings.TrimSpace(payload.Name),
		Category:      payload.Category,
		SpecialtyID:   payload.SpecialtyID,
		TariffRate:    payload.TariffRate,
	}
	if p.PositionIndex == "" || p.Name == "" {
		return nil, fmt.Errorf("%w: position index and name are required", ErrValidationInput)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPositionRefs(ctx, tx, p.UnitID, p.SpecialtyID); err != nil {
			return err
		}
		return savePosition(tx, s.recorder, actx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPosition(ctx, p.ID)
}

func (s *staffingService) GetPosition(ctx context.Context, id int64) (*models.Position, error) {
	p, err := repositories.NewGormPositionRepository(s.db).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrPositionNotFound
	}
	return p, err
}

func (s *staffingService) ListPositions(ctx context.Context, filter repositories.PositionFilter) ([]models.Position, int64, error) {
	return repositories.NewGormPositionRepository(s.db).List(ctx, filter)
}

func (s *staffingService) UpdatePosition(ctx context.Context, actx audit.Context, id int64, payload models.PositionUpdatePayload) (*models.Position, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repositories.NewGormPositionRepository(tx).GetByID(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrPositionNotFound
		} else if err != nil {
			return err
		}
		p.Occupant = nil
		if payload.UnitID != nil {
			p.UnitID = *payload.UnitID
		}
		if payload.PositionIndex != nil {
			p.PositionIndex = strings.TrimSpace(*payload.PositionIndex)
		}
		if payload.Name != nil {
			p.Name = strings.TrimSpace(*payload.Name)
		}
		if p.PositionIndex == "" || p.Name == "" {
			return fmt.Errorf("%w: position index and name are required", ErrValidationInput)
		}
		if payload.Category != nil {
			p.Category = *payload.Category
		}
		if payload.SpecialtyID != nil {
			if *payload.SpecialtyID == 0 {
				p.SpecialtyID = nil
			} else {
				p.SpecialtyID = payload.SpecialtyID
			}
		}
		if payload.TariffRate != nil {
			p.TariffRate = *payload.TariffRate
		}
		if err := checkPositionRefs(ctx, tx, p.UnitID, p.SpecialtyID); err != nil {
			return err
		}
		return savePosition(tx, s.recorder, actx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.GetPosition(ctx, id)
}

func (s *staffingService) DeletePosition(ctx context.Context, actx audit.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repositories.NewGormPositionRepository(tx).GetByID(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrPositionNotFound
		} else if err != nil {
			return err
		}
		if p.Occupant != nil {
			return ErrPositionHeld
		}
		used, err := repositories.NewGormPositionHistoryRepository(tx).ExistsForPosition(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrPositionProtected
		}
		return s.recorder.Delete(tx, actx, p)
	})
}

func (s *staffingService) VacantPositions(ctx context.Context, unitID int64) ([]models.Position, error) {
	filter := repositories.PositionFilter{VacantOnly: true}
	if unitID != 0 {
		scope, err := s.UnitScope(ctx, unitID)
		if err != nil {
			return nil, err
		}
		filter.UnitIDs = scope
	}
	return repositories.NewGormPositionRepository(s.db).FindAll(ctx, filter)
}
