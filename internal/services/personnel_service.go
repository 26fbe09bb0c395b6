package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/pkg/utils"
)

// MemberDetail is a service member with everything shown on the personal card.
type MemberDetail struct {
	*models.ServiceMember
	Age             int                          `json:"age"`
	Contracts       []models.Contract            `json:"contracts"`
	PositionHistory []models.PositionHistory     `json:"positionHistory"`
	ServiceHistory  []models.ServiceHistoryEvent `json:"serviceHistory"`
}

// MemberHistory is the combined position and event history of a member.
type MemberHistory struct {
	Positions []models.PositionHistory     `json:"positions"`
	Events    []models.ServiceHistoryEvent `json:"events"`
}

// PersonnelService manages service members and their contracts.
type PersonnelService interface {
	CreateMember(ctx context.Context, actx audit.Context, payload models.ServiceMemberCreatePayload) (*models.ServiceMember, error)
	// GetMember loads the personal card and records a VIEW audit row.
	GetMember(ctx context.Context, actx audit.Context, id int64) (*MemberDetail, error)
	ListMembers(ctx context.Context, filter repositories.ServiceMemberFilter) ([]models.ServiceMember, int64, error)
	UpdateMember(ctx context.Context, actx audit.Context, id int64, payload models.ServiceMemberUpdatePayload) (*models.ServiceMember, error)
	DeleteMember(ctx context.Context, actx audit.Context, id int64) error
	History(ctx context.Context, id int64) (*MemberHistory, error)

	AssignPosition(ctx context.Context, actx audit.Context, id int64, payload models.AssignPositionPayload) (*models.ServiceMember, error)
	Promote(ctx context.Context, actx audit.Context, id int64, payload models.PromotePayload) (*models.ServiceMember, error)
	Dismiss(ctx context.Context, actx audit.Context, id int64, payload models.DismissPayload) (*models.ServiceMember, error)

	AddContract(ctx context.Context, actx audit.Context, memberID int64, payload models.ContractPayload) (*models.Contract, error)
	ListContracts(ctx context.Context, memberID int64) ([]models.Contract, error)
	DeleteContract(ctx context.Context, actx audit.Context, id int64) error
}

type personnelService struct {
	db          *gorm.DB
	recorder    *audit.Recorder
	transitions TransitionService
	now         func() time.Time
}

// NewPersonnelService creates a PersonnelService.
func NewPersonnelService(db *gorm.DB, recorder *audit.Recorder, transitions TransitionService) PersonnelService {
	return &personnelService{db: db, recorder: recorder, transitions: transitions, now: time.Now}
}

func (s *personnelService) member(ctx context.Context, tx *gorm.DB, id int64) (*models.ServiceMember, error) {
	m, err := repositories.NewGormServiceMemberRepository(tx).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrServiceMemberNotFound
	}
	return m, err
}

func parseDateField(name string, value *string) (*time.Time, error) {
	t, err := utils.ParseOptionalDate(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrValidationInput, name, err)
	}
	return t, nil
}

func requiredDate(name, value string) (time.Time, error) {
	t, err := utils.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrValidationInput, name, err)
	}
	return t, nil
}

// normalizeTaxID trims the number and validates it; empty means absent.
func normalizeTaxID(v *string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*v)
	if err := utils.ValidateTaxID(trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationInput, err)
	}
	return &trimmed, nil
}

func saveMember(tx *gorm.DB, recorder *audit.Recorder, actx audit.Context, m *models.ServiceMember) error {
	err := recorder.Save(tx, actx, m)
	switch {
	case repositories.IsUniqueViolation(err, "tax_id_number"):
		return ErrTaxIDExists
	case repositories.IsUniqueViolation(err, "user_id"):
		return fmt.Errorf("%w: user account is already linked to another member", ErrConflict)
	}
	return err
}

func (s *personnelService) CreateMember(ctx context.Context, actx audit.Context, payload models.ServiceMemberCreatePayload) (*models.ServiceMember, error) {
	status := payload.Status
	if status == "" {
		status = models.StatusOnDuty
	}
	if !models.IsValidMemberStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationInput, status)
	}
	dob, err := parseDateField("dateOfBirth", payload.DateOfBirth)
	if err != nil {
		return nil, err
	}
	enlisted, err := parseDateField("enlistmentDate", payload.EnlistmentDate)
	if err != nil {
		return nil, err
	}
	taxID, err := normalizeTaxID(payload.TaxIDNumber)
	if err != nil {
		return nil, err
	}

	m := &models.ServiceMember{
		UserID:         payload.UserID,
		RankID:         payload.RankID,
		LastName:       strings.TrimSpace(payload.LastName),
		FirstName:      strings.TrimSpace(payload.FirstName),
		MiddleName:     strings.TrimSpace(payload.MiddleName),
		Status:         status,
		DateOfBirth:    dob,
		PlaceOfBirth:   payload.PlaceOfBirth,
		TaxIDNumber:    taxID,
		PassportNumber: payload.PassportNumber,
	}
	if m.LastName == "" || m.FirstName == "" {
		return nil, fmt.Errorf("%w: last and first name are required", ErrValidationInput)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repositories.NewGormReferenceRepository(tx).GetRank(ctx, m.RankID); errors.Is(err, repositories.ErrRecordNotFound) {
			return &ReferenceError{Kind: "rank", ID: m.RankID}
		} else if err != nil {
			return err
		}
		if err := saveMember(tx, s.recorder, actx, m); err != nil {
			return err
		}
		date := s.now()
		if enlisted != nil {
			date = *enlisted
		}
		return s.transitions.RecordEvent(ctx, tx, m, models.EventEnlistment, nil, "", date)
	})
	if err != nil {
		return nil, err
	}
	return s.member(ctx, s.db, m.ID)
}

func (s *personnelService) GetMember(ctx context.Context, actx audit.Context, id int64) (*MemberDetail, error) {
	m, err := s.member(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	detail := &MemberDetail{ServiceMember: m, Age: m.Age(s.now())}
	if detail.Contracts, err = repositories.NewGormContractRepository(s.db).ListByMember(ctx, id); err != nil {
		return nil, err
	}
	if detail.PositionHistory, err = repositories.NewGormPositionHistoryRepository(s.db).ListByMember(ctx, id); err != nil {
		return nil, err
	}
	if detail.ServiceHistory, err = repositories.NewGormServiceHistoryEventRepository(s.db).ListByMember(ctx, id); err != nil {
		return nil, err
	}
	s.recorder.Viewed(s.db.WithContext(ctx), actx, m)
	return detail, nil
}

func (s *personnelService) ListMembers(ctx context.Context, filter repositories.ServiceMemberFilter) ([]models.ServiceMember, int64, error) {
	repo := repositories.NewGormServiceMemberRepository(s.db)
	if filter.SortBy != "name" {
		return repo.List(ctx, filter)
	}

	// Alphabetical order needs Ukrainian collation, which the store may not
	// provide, so the filtered set is sorted and paged here.
	if filter.SortOrder == "" {
		filter.SortOrder = "asc"
	}
	filter.ListParams = filter.ListParams.Normalize()
	all, err := repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	utils.SortUkrainian(all, func(m models.ServiceMember) string { return m.FullName() })
	if filter.SortOrder == "desc" {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	total := int64(len(all))
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *personnelService) UpdateMember(ctx context.Context, actx audit.Context, id int64, payload models.ServiceMemberUpdatePayload) (*models.ServiceMember, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.member(ctx, tx, id)
		if err != nil {
			return err
		}
		if payload.LastName != nil {
			m.LastName = strings.TrimSpace(*payload.LastName)
		}
		if payload.FirstName != nil {
			m.FirstName = strings.TrimSpace(*payload.FirstName)
		}
		if payload.MiddleName != nil {
			m.MiddleName = strings.TrimSpace(*payload.MiddleName)
		}
		if m.LastName == "" || m.FirstName == "" {
			return fmt.Errorf("%w: last and first name are required", ErrValidationInput)
		}
		if payload.Status != nil && *payload.Status != m.Status {
			if !models.IsValidMemberStatus(*payload.Status) {
				return fmt.Errorf("%w: unknown status %q", ErrValidationInput, *payload.Status)
			}
			if *payload.Status == models.StatusDismissed || *payload.Status == models.StatusKIA {
				return fmt.Errorf("%w: status %s is set by dismissal or exclusion", ErrValidationInput, *payload.Status)
			}
			m.Status = *payload.Status
		}
		if payload.DateOfBirth != nil {
			if m.DateOfBirth, err = parseDateField("dateOfBirth", payload.DateOfBirth); err != nil {
				return err
			}
		}
		if payload.PlaceOfBirth != nil {
			m.PlaceOfBirth = *payload.PlaceOfBirth
		}
		if payload.TaxIDNumber != nil {
			if m.TaxIDNumber, err = normalizeTaxID(payload.TaxIDNumber); err != nil {
				return err
			}
		}
		if payload.PassportNumber != nil {
			m.PassportNumber = strings.TrimSpace(*payload.PassportNumber)
		}
		return saveMember(tx, s.recorder, actx, m)
	})
	if err != nil {
		return nil, err
	}
	return s.member(ctx, s.db, id)
}

func (s *personnelService) DeleteMember(ctx context.Context, actx audit.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.member(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := repositories.NewGormServiceMemberRepository(tx).DeleteOwned(ctx, id); err != nil {
			return err
		}
		return s.recorder.Delete(tx, actx, m)
	})
}

func (s *personnelService) History(ctx context.Context, id int64) (*MemberHistory, error) {
	if _, err := s.member(ctx, s.db, id); err != nil {
		return nil, err
	}
	positions, err := repositories.NewGormPositionHistoryRepository(s.db).ListByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := repositories.NewGormServiceHistoryEventRepository(s.db).ListByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MemberHistory{Positions: positions, Events: events}, nil
}

func (s *personnelService) AssignPosition(ctx context.Context, actx audit.Context, id int64, payload models.AssignPositionPayload) (*models.ServiceMember, error) {
	date, err := requiredDate("date", payload.Date)
	if err != nil {
		return nil, err
	}
	m, err := s.member(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	eventType := models.EventAppointment
	if payload.Transfer {
		eventType = models.EventTransfer
	}
	if err := s.transitions.AssignPosition(ctx, nil, actx, m, &models.Position{ID: payload.PositionID}, payload.OrderReference, date, eventType); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *personnelService) Promote(ctx context.Context, actx audit.Context, id int64, payload models.PromotePayload) (*models.ServiceMember, error) {
	date, err := requiredDate("date", payload.Date)
	if err != nil {
		return nil, err
	}
	m, err := s.member(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.transitions.Promote(ctx, nil, actx, m, &models.Rank{ID: payload.RankID}, payload.OrderReference, date); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *personnelService) Dismiss(ctx context.Context, actx audit.Context, id int64, payload models.DismissPayload) (*models.ServiceMember, error) {
	date, err := requiredDate("date", payload.Date)
	if err != nil {
		return nil, err
	}
	m, err := s.member(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.transitions.Dismiss(ctx, nil, actx, m, payload.Reason, payload.OrderReference, date); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *personnelService) AddContract(ctx context.Context, actx audit.Context, memberID int64, payload models.ContractPayload) (*models.Contract, error) {
	start, err := requiredDate("startDate", payload.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := requiredDate("endDate", payload.EndDate)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: contract must end after it starts", ErrValidationInput)
	}
	c := &models.Contract{ServiceMemberID: memberID, StartDate: start, EndDate: end, Details: payload.Details}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.member(ctx, tx, memberID); err != nil {
			return err
		}
		return s.recorder.Save(tx, actx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *personnelService) ListContracts(ctx context.Context, memberID int64) ([]models.Contract, error) {
	if _, err := s.member(ctx, s.db, memberID); err != nil {
		return nil, err
	}
	return repositories.NewGormContractRepository(s.db).ListByMember(ctx, memberID)
}

func (s *personnelService) DeleteContract(ctx context.Context, actx audit.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repositories.NewGormContractRepository(tx).GetByID(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrContractNotFound
		} else if err != nil {
			return err
		}
		c.ServiceMember = nil
		return s.recorder.Delete(tx, actx, c)
	})
}
