package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/pkg/logger"
	"github.com/personnel_accounting/pkg/metrics"
)

// TransitionService applies personnel state changes. Every method runs in its
// own transaction, nested inside tx when tx is non-nil, so a failure leaves
// no partial writes. The member argument is refreshed in place on success.
type TransitionService interface {
	// AssignPosition moves member into the vacant position, closing the
	// current tenure first. eventType is APPOINTMENT or TRANSFER.
	AssignPosition(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, position *models.Position, ref string, date time.Time, eventType string) error
	Promote(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, rank *models.Rank, ref string, date time.Time) error
	Dismiss(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, reason, ref string, date time.Time) error
	ExcludeKilled(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, details models.ExcludeKIADetails, ref string, date time.Time) error
	// Vacate closes the open tenure and clears the member's position.
	Vacate(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, date time.Time) error
	// RecordEvent appends an event without touching position or rank.
	RecordEvent(ctx context.Context, tx *gorm.DB, member *models.ServiceMember, eventType string, details any, ref string, date time.Time) error
}

type transitionService struct {
	db       *gorm.DB
	recorder *audit.Recorder
}

// NewTransitionService creates a TransitionService.
func NewTransitionService(db *gorm.DB, recorder *audit.Recorder) TransitionService {
	return &transitionService{db: db, recorder: recorder}
}

func (s *transitionService) within(tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx == nil {
		tx = s.db
	}
	return tx.Transaction(fn)
}

// reload fetches the stored member so decisions use committed state.
func reloadMember(ctx context.Context, tx *gorm.DB, id int64) (*models.ServiceMember, error) {
	current, err := repositories.NewGormServiceMemberRepository(tx).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, &ReferenceError{Kind: "service member", ID: id}
	}
	return current, err
}

// reloadActiveMember is reloadMember for transitions that need a member who
// is neither dismissed nor killed.
func reloadActiveMember(ctx context.Context, tx *gorm.DB, id int64) (*models.ServiceMember, error) {
	current, err := reloadMember(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !isActive(current) {
		return nil, ErrMemberNotActive
	}
	return current, nil
}

func isActive(m *models.ServiceMember) bool {
	return m.Status != models.StatusDismissed && m.Status != models.StatusKIA
}

func (s *transitionService) AssignPosition(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, position *models.Position, ref string, date time.Time, eventType string) error {
	if eventType != models.EventAppointment && eventType != models.EventTransfer {
		return fmt.Errorf("%w: event type %q is not an assignment", ErrValidationInput, eventType)
	}
	if member == nil || position == nil {
		return fmt.Errorf("%w: member and position are required", ErrValidationInput)
	}
	date = dateOnly(date)

	err := s.within(tx, func(tx *gorm.DB) error {
		members := repositories.NewGormServiceMemberRepository(tx)
		history := repositories.NewGormPositionHistoryRepository(tx)

		current, err := reloadActiveMember(ctx, tx, member.ID)
		if err != nil {
			return err
		}
		target, err := repositories.NewGormPositionRepository(tx).GetByID(ctx, position.ID)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return &ReferenceError{Kind: "position", ID: position.ID}
		} else if err != nil {
			return err
		}
		if current.PositionID != nil && *current.PositionID == target.ID {
			return ErrAlreadyInPosition
		}
		if target.Occupant != nil {
			return &PositionOccupiedError{
				PositionID:   target.ID,
				PositionName: target.String(),
				OccupantID:   target.Occupant.ID,
				OccupantName: target.Occupant.String(),
			}
		}

		details := models.TransferDetails{
			FromPositionName: models.NoPreviousPosition,
			ToPositionID:     target.ID,
			ToPositionName:   target.String(),
		}
		if current.PositionID != nil {
			from := *current.PositionID
			details.FromPositionID = &from
			if current.Position != nil {
				details.FromPositionName = current.Position.String()
			}
			if err := closeOpenTenure(ctx, history, current.ID, date); err != nil {
				return err
			}
		}

		current.PositionID = &target.ID
		current.Position = target
		if err := s.recorder.Save(tx, actx, current); err != nil {
			if repositories.IsUniqueViolation(err, "position_id") {
				return &PositionOccupiedError{PositionID: target.ID, PositionName: target.String()}
			}
			return err
		}

		if err := history.Create(ctx, &models.PositionHistory{
			ServiceMemberID: current.ID,
			PositionID:      target.ID,
			StartDate:       date,
			OrderReference:  ref,
		}); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, current.ID, eventType, details, ref, date); err != nil {
			return err
		}

		fresh, err := members.GetByID(ctx, current.ID)
		if err != nil {
			return err
		}
		*member = *fresh
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Transitions.WithLabelValues(eventType).Inc()
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"member_id":   member.ID,
		"position_id": position.ID,
		"event":       eventType,
		"order_ref":   ref,
	}).Info("position assigned")
	return nil
}

func (s *transitionService) Promote(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, rank *models.Rank, ref string, date time.Time) error {
	if member == nil || rank == nil {
		return fmt.Errorf("%w: member and rank are required", ErrValidationInput)
	}
	date = dateOnly(date)

	err := s.within(tx, func(tx *gorm.DB) error {
		current, err := reloadActiveMember(ctx, tx, member.ID)
		if err != nil {
			return err
		}
		target, err := repositories.NewGormReferenceRepository(tx).GetRank(ctx, rank.ID)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return &ReferenceError{Kind: "rank", ID: rank.ID}
		} else if err != nil {
			return err
		}

		previous := current.Rank.Name
		current.RankID = target.ID
		current.Rank = *target
		if err := s.recorder.Save(tx, actx, current); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, current.ID, models.EventPromotion, models.PromotionDetails{
			PreviousRank: previous,
			NewRank:      target.Name,
		}, ref, date); err != nil {
			return err
		}
		*member = *current
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Transitions.WithLabelValues(models.EventPromotion).Inc()
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"member_id": member.ID,
		"rank":      rank.Name,
		"order_ref": ref,
	}).Info("service member promoted")
	return nil
}

func (s *transitionService) Dismiss(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, reason, ref string, date time.Time) error {
	if member == nil {
		return fmt.Errorf("%w: member is required", ErrValidationInput)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	date = dateOnly(date)

	err := s.within(tx, func(tx *gorm.DB) error {
		current, err := reloadActiveMember(ctx, tx, member.ID)
		if err != nil {
			return err
		}
		if err := s.leave(ctx, tx, actx, current, models.StatusDismissed, date); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, current.ID, models.EventDismissal, models.DismissalDetails{Reason: reason}, ref, date); err != nil {
			return err
		}
		*member = *current
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Transitions.WithLabelValues(models.EventDismissal).Inc()
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"member_id": member.ID,
		"order_ref": ref,
	}).Info("service member dismissed")
	return nil
}

func (s *transitionService) ExcludeKilled(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, details models.ExcludeKIADetails, ref string, date time.Time) error {
	if member == nil {
		return fmt.Errorf("%w: member is required", ErrValidationInput)
	}
	date = dateOnly(date)

	err := s.within(tx, func(tx *gorm.DB) error {
		current, err := reloadActiveMember(ctx, tx, member.ID)
		if err != nil {
			return err
		}
		if err := s.leave(ctx, tx, actx, current, models.StatusKIA, date); err != nil {
			return err
		}
		payload := map[string]any{}
		if details.DateOfDeath != nil {
			payload["date_of_death"] = details.DateOfDeath.Format("2006-01-02")
		}
		if details.Circumstances != "" {
			payload["circumstances"] = details.Circumstances
		}
		if err := appendEvent(ctx, tx, current.ID, models.EventDeath, payload, ref, date); err != nil {
			return err
		}
		*member = *current
		return nil
	})
	if err != nil {
		return err
	}

	metrics.Transitions.WithLabelValues(models.EventDeath).Inc()
	logger.FromContext(ctx).WithField("member_id", member.ID).Info("service member excluded as killed in action")
	return nil
}

func (s *transitionService) Vacate(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, date time.Time) error {
	if member == nil {
		return fmt.Errorf("%w: member is required", ErrValidationInput)
	}
	date = dateOnly(date)
	return s.within(tx, func(tx *gorm.DB) error {
		current, err := reloadMember(ctx, tx, member.ID)
		if err != nil {
			return err
		}
		if err := s.leave(ctx, tx, actx, current, current.Status, date); err != nil {
			return err
		}
		*member = *current
		return nil
	})
}

// leave sets status, closes the open tenure and clears the position link.
func (s *transitionService) leave(ctx context.Context, tx *gorm.DB, actx audit.Context, current *models.ServiceMember, status string, date time.Time) error {
	current.Status = status
	if current.PositionID != nil {
		if err := closeOpenTenure(ctx, repositories.NewGormPositionHistoryRepository(tx), current.ID, date); err != nil {
			return err
		}
		current.PositionID = nil
		current.Position = nil
	}
	return s.recorder.Save(tx, actx, current)
}

func (s *transitionService) RecordEvent(ctx context.Context, tx *gorm.DB, member *models.ServiceMember, eventType string, details any, ref string, date time.Time) error {
	if member == nil || member.ID == 0 {
		return fmt.Errorf("%w: member is required", ErrValidationInput)
	}
	return s.within(tx, func(tx *gorm.DB) error {
		if _, err := reloadMember(ctx, tx, member.ID); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, member.ID, eventType, details, ref, dateOnly(date)); err != nil {
			return err
		}
		metrics.Transitions.WithLabelValues(eventType).Inc()
		return nil
	})
}

// closeOpenTenure ends the member's open position history row, if any.
func closeOpenTenure(ctx context.Context, history repositories.PositionHistoryRepository, memberID int64, date time.Time) error {
	open, err := history.GetOpen(ctx, memberID)
	if errors.Is(err, repositories.ErrNoOpenTenure) {
		return nil
	}
	if err != nil {
		return err
	}
	return history.Close(ctx, open.ID, date)
}

func appendEvent(ctx context.Context, tx *gorm.DB, memberID int64, eventType string, details any, ref string, date time.Time) error {
	raw := []byte("{}")
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode %s details: %w", eventType, err)
		}
		raw = b
	}
	return repositories.NewGormServiceHistoryEventRepository(tx).Create(ctx, &models.ServiceHistoryEvent{
		ServiceMemberID: memberID,
		EventType:       eventType,
		EventDate:       date,
		Details:         raw,
		OrderReference:  ref,
	})
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
