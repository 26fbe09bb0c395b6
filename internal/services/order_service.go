package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/pkg/logger"
	"github.com/personnel_accounting/pkg/metrics"
	"github.com/personnel_accounting/pkg/utils"
)

// ExecutionResult reports the outcome of one order in a bulk execution.
type ExecutionResult struct {
	OrderID  int64  `json:"orderId"`
	Executed bool   `json:"executed"`
	Applied  int    `json:"applied"`
	Error    string `json:"error,omitempty"`
}

// OrderService manages orders, their actions and their execution.
type OrderService interface {
	CreateOrder(ctx context.Context, actx audit.Context, payload models.OrderCreatePayload) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, int64, error)
	UpdateOrder(ctx context.Context, actx audit.Context, id int64, payload models.OrderUpdatePayload) (*models.Order, error)
	DeleteOrder(ctx context.Context, actx audit.Context, id int64) error

	AddAction(ctx context.Context, actx audit.Context, orderID int64, payload models.OrderActionPayload) (*models.OrderAction, error)
	RemoveAction(ctx context.Context, actx audit.Context, orderID, actionID int64) error

	Submit(ctx context.Context, actx audit.Context, id int64) (*models.Order, error)
	Sign(ctx context.Context, actx audit.Context, id int64) (*models.Order, error)
	Cancel(ctx context.Context, actx audit.Context, id int64) (*models.Order, error)

	// Execute applies every pending action of the order and marks it EXECUTED,
	// all in one transaction. It returns the number of actions applied.
	Execute(ctx context.Context, actx audit.Context, id int64) (int, error)
	// ExecuteMany executes each order independently; one failure does not
	// affect the others.
	ExecuteMany(ctx context.Context, actx audit.Context, ids []int64) []ExecutionResult
}

type orderService struct {
	db          *gorm.DB
	recorder    *audit.Recorder
	transitions TransitionService
}

// NewOrderService creates an OrderService.
func NewOrderService(db *gorm.DB, recorder *audit.Recorder, transitions TransitionService) OrderService {
	return &orderService{db: db, recorder: recorder, transitions: transitions}
}

func (s *orderService) load(ctx context.Context, tx *gorm.DB, id int64) (*models.Order, error) {
	order, err := repositories.NewGormOrderRepository(tx).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *orderService) CreateOrder(ctx context.Context, actx audit.Context, payload models.OrderCreatePayload) (*models.Order, error) {
	date, err := utils.ParseDate(payload.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("%w: orderDate: %v", ErrValidationInput, err)
	}
	orderType := payload.OrderType
	if orderType == "" {
		orderType = models.OrderTypePersonnel
	}
	order := &models.Order{
		OrderNumber:      strings.TrimSpace(payload.OrderNumber),
		OrderDate:        date,
		OrderType:        orderType,
		IssuingAuthority: payload.IssuingAuthority,
		Status:           models.OrderStatusDraft,
		OrderText:        payload.OrderText,
		CreatedByID:      actx.UserID,
	}
	if order.OrderNumber == "" {
		return nil, fmt.Errorf("%w: order number is required", ErrValidationInput)
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recorder.Save(tx, actx, order)
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.load(ctx, s.db, id)
}

func (s *orderService) ListOrders(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, int64, error) {
	return repositories.NewGormOrderRepository(s.db).List(ctx, filter)
}

func (s *orderService) UpdateOrder(ctx context.Context, actx audit.Context, id int64, payload models.OrderUpdatePayload) (*models.Order, error) {
	var updated *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusDraft {
			return &OrderStateError{OrderID: order.ID, Status: order.Status, Operation: "edited"}
		}
		if payload.OrderNumber != nil {
			if strings.TrimSpace(*payload.OrderNumber) == "" {
				return fmt.Errorf("%w: order number is required", ErrValidationInput)
			}
			order.OrderNumber = strings.TrimSpace(*payload.OrderNumber)
		}
		if payload.OrderDate != nil {
			date, err := utils.ParseDate(*payload.OrderDate)
			if err != nil {
				return fmt.Errorf("%w: orderDate: %v", ErrValidationInput, err)
			}
			order.OrderDate = date
		}
		if payload.OrderType != nil {
			order.OrderType = *payload.OrderType
		}
		if payload.IssuingAuthority != nil {
			order.IssuingAuthority = *payload.IssuingAuthority
		}
		if payload.OrderText != nil {
			order.OrderText = *payload.OrderText
		}
		if err := s.recorder.Save(tx, actx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	return updated, err
}

func (s *orderService) DeleteOrder(ctx context.Context, actx audit.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusDraft && order.Status != models.OrderStatusCanceled {
			return &OrderStateError{OrderID: order.ID, Status: order.Status, Operation: "deleted"}
		}
		for i := range order.Actions {
			if err := s.recorder.Delete(tx, actx, &order.Actions[i]); err != nil {
				return err
			}
		}
		order.Actions = nil
		return s.recorder.Delete(tx, actx, order)
	})
}

func (s *orderService) AddAction(ctx context.Context, actx audit.Context, orderID int64, payload models.OrderActionPayload) (*models.OrderAction, error) {
	if _, err := models.DecodeActionDetails(payload.ActionType, payload.Details); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationInput, err)
	}
	details := payload.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	action := &models.OrderAction{
		OrderID:         orderID,
		ServiceMemberID: payload.ServiceMemberID,
		ActionType:      payload.ActionType,
		Details:         []byte(details),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := repositories.NewGormOrderRepository(tx).GetForExecution(ctx, orderID)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrOrderNotFound
		} else if err != nil {
			return err
		}
		if order.Status != models.OrderStatusDraft {
			return &OrderStateError{OrderID: order.ID, Status: order.Status, Operation: "amended"}
		}
		if _, err := reloadMember(ctx, tx, payload.ServiceMemberID); err != nil {
			return err
		}
		return s.recorder.Save(tx, actx, action)
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

func (s *orderService) RemoveAction(ctx context.Context, actx audit.Context, orderID, actionID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repositories.NewGormOrderRepository(tx)
		order, err := orders.GetForExecution(ctx, orderID)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrOrderNotFound
		} else if err != nil {
			return err
		}
		if order.Status != models.OrderStatusDraft {
			return &OrderStateError{OrderID: order.ID, Status: order.Status, Operation: "amended"}
		}
		action, err := orders.GetAction(ctx, orderID, actionID)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrOrderActionNotFound
		} else if err != nil {
			return err
		}
		if action.ExecutionStatus {
			return ErrActionAlreadyApplied
		}
		return s.recorder.Delete(tx, actx, action)
	})
}

// transition moves the order to status when its current status is one of from.
func (s *orderService) transition(ctx context.Context, actx audit.Context, id int64, operation, status string, from ...string) (*models.Order, error) {
	var result *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := repositories.NewGormOrderRepository(tx).GetForExecution(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrOrderNotFound
		} else if err != nil {
			return err
		}
		allowed := false
		for _, f := range from {
			if order.Status == f {
				allowed = true
				break
			}
		}
		if !allowed {
			return &OrderStateError{OrderID: order.ID, Status: order.Status, Operation: operation}
		}
		order.Status = status
		if err := s.recorder.Save(tx, actx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).WithFields(logrus.Fields{"order_id": id, "status": status}).Info("order status changed")
	return result, nil
}

func (s *orderService) Submit(ctx context.Context, actx audit.Context, id int64) (*models.Order, error) {
	return s.transition(ctx, actx, id, "submitted", models.OrderStatusOnApproval, models.OrderStatusDraft)
}

func (s *orderService) Sign(ctx context.Context, actx audit.Context, id int64) (*models.Order, error) {
	return s.transition(ctx, actx, id, "signed", models.OrderStatusSigned, models.OrderStatusDraft, models.OrderStatusOnApproval)
}

func (s *orderService) Cancel(ctx context.Context, actx audit.Context, id int64) (*models.Order, error) {
	return s.transition(ctx, actx, id, "canceled", models.OrderStatusCanceled,
		models.OrderStatusDraft, models.OrderStatusOnApproval, models.OrderStatusSigned)
}

func (s *orderService) Execute(ctx context.Context, actx audit.Context, id int64) (int, error) {
	applied := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := repositories.NewGormOrderRepository(tx)
		order, err := orders.GetForExecution(ctx, id)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrOrderNotFound
		} else if err != nil {
			return err
		}
		if !order.IsExecutable() {
			return &OrderStateError{OrderID: order.ID, Status: order.Status, Operation: "executed"}
		}

		pending, err := orders.PendingActions(ctx, order.ID)
		if err != nil {
			return err
		}
		for i := range pending {
			action := &pending[i]
			if err := s.apply(ctx, tx, actx, order, action); err != nil {
				return &OrderExecutionError{OrderID: order.ID, ActionID: action.ID, ActionType: action.ActionType, Err: err}
			}
			action.ExecutionStatus = true
			if err := s.recorder.Save(tx, actx, action); err != nil {
				return &OrderExecutionError{OrderID: order.ID, ActionID: action.ID, ActionType: action.ActionType, Err: err}
			}
			applied++
		}

		order.Status = models.OrderStatusExecuted
		return s.recorder.Save(tx, actx, order)
	})

	log := logger.FromContext(ctx).WithField("order_id", id)
	if err != nil {
		metrics.OrderExecutions.WithLabelValues("failed").Inc()
		log.WithError(err).Warn("order execution failed")
		return 0, err
	}
	metrics.OrderExecutions.WithLabelValues("executed").Inc()
	log.WithField("applied", applied).Info("order executed")
	return applied, nil
}

// apply dispatches one action to the matching transition.
func (s *orderService) apply(ctx context.Context, tx *gorm.DB, actx audit.Context, order *models.Order, action *models.OrderAction) error {
	details, err := models.DecodeActionDetails(action.ActionType, action.Details)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationInput, err)
	}
	member, err := reloadMember(ctx, tx, action.ServiceMemberID)
	if err != nil {
		return err
	}
	ref := order.String()
	date := order.OrderDate

	switch d := details.(type) {
	case models.AppointDetails:
		eventType := models.EventAppointment
		if d.Type == models.ActionTransfer {
			eventType = models.EventTransfer
		}
		return s.transitions.AssignPosition(ctx, tx, actx, member, &models.Position{ID: d.NewPositionID}, ref, date, eventType)
	case models.PromoteDetails:
		return s.transitions.Promote(ctx, tx, actx, member, &models.Rank{ID: d.NewRankID}, ref, date)
	case models.DismissDetails:
		return s.transitions.Dismiss(ctx, tx, actx, member, d.Reason, ref, date)
	case models.ExcludeKIADetails:
		return s.transitions.ExcludeKilled(ctx, tx, actx, member, d, ref, date)
	case models.AwardDetails:
		return s.transitions.RecordEvent(ctx, tx, member, models.EventAward, map[string]string{"award": d.Award}, ref, date)
	case models.ReprimandDetails:
		return s.transitions.RecordEvent(ctx, tx, member, models.EventReprimand, map[string]string{"reason": d.Reason}, ref, date)
	}
	return fmt.Errorf("%w: %w", ErrValidationInput, models.ErrUnknownActionType)
}

func (s *orderService) ExecuteMany(ctx context.Context, actx audit.Context, ids []int64) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(ids))
	for _, id := range ids {
		applied, err := s.Execute(ctx, actx, id)
		result := ExecutionResult{OrderID: id, Executed: err == nil, Applied: applied}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}
