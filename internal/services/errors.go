package services

import (
	"errors"
	"fmt"
)

// Error taxonomy roots. Handlers map them to HTTP statuses with errors.Is.
var (
	// ErrConflict covers occupied positions, illegal order state transitions
	// and duplicate business keys.
	ErrConflict = errors.New("conflict")
	// ErrReferenceNotFound means a referenced position, rank or member does not exist.
	ErrReferenceNotFound = errors.New("referenced record not found")
	// ErrValidationInput means required input is absent or malformed.
	ErrValidationInput = errors.New("invalid input")
	// ErrNotFound is a plain lookup miss for the requested resource itself.
	ErrNotFound = errors.New("not found")
)

var (
	ErrServiceMemberNotFound = fmt.Errorf("%w: service member", ErrNotFound)
	ErrPositionNotFound      = fmt.Errorf("%w: position", ErrNotFound)
	ErrRankNotFound          = fmt.Errorf("%w: rank", ErrNotFound)
	ErrUnitNotFound          = fmt.Errorf("%w: unit", ErrNotFound)
	ErrSpecialtyNotFound     = fmt.Errorf("%w: military specialty", ErrNotFound)
	ErrOrderNotFound         = fmt.Errorf("%w: order", ErrNotFound)
	ErrOrderActionNotFound   = fmt.Errorf("%w: order action", ErrNotFound)
	ErrContractNotFound      = fmt.Errorf("%w: contract", ErrNotFound)
	ErrReportNotFound        = fmt.Errorf("%w: serviceman report", ErrNotFound)
	ErrAuditLogNotFound      = fmt.Errorf("%w: audit log", ErrNotFound)

	ErrAlreadyInPosition    = fmt.Errorf("%w: service member already holds this position", ErrValidationInput)
	ErrReasonRequired       = fmt.Errorf("%w: dismissal reason is required", ErrValidationInput)
	ErrMemberNotActive      = fmt.Errorf("%w: service member is dismissed or excluded", ErrConflict)
	ErrTaxIDExists          = fmt.Errorf("%w: tax id number already registered", ErrConflict)
	ErrPositionIndexExists  = fmt.Errorf("%w: position index already exists", ErrConflict)
	ErrPositionProtected    = fmt.Errorf("%w: position is referenced by position history", ErrConflict)
	ErrPositionHeld         = fmt.Errorf("%w: position is held by a service member", ErrConflict)
	ErrRankInUse            = fmt.Errorf("%w: rank is assigned to service members", ErrConflict)
	ErrActionAlreadyApplied = fmt.Errorf("%w: order action already executed", ErrConflict)
	ErrRegistrationExists   = fmt.Errorf("%w: registration number already exists", ErrConflict)
	ErrReportNotEditable    = fmt.Errorf("%w: report can no longer be edited", ErrConflict)
)

// PositionOccupiedError is returned when the target position already has an occupant.
type PositionOccupiedError struct {
	PositionID   int64
	PositionName string
	OccupantID   int64
	OccupantName string
}

func (e *PositionOccupiedError) Error() string {
	return fmt.Sprintf("position %q is already occupied by %s (member #%d)", e.PositionName, e.OccupantName, e.OccupantID)
}

func (e *PositionOccupiedError) Unwrap() error { return ErrConflict }

// OrderStateError is returned when an order operation is not allowed in the
// order's current status.
type OrderStateError struct {
	OrderID   int64
	Status    string
	Operation string
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("order #%d cannot be %s in status %s", e.OrderID, e.Operation, e.Status)
}

func (e *OrderStateError) Unwrap() error { return ErrConflict }

// OrderExecutionError identifies the action that aborted an order execution.
type OrderExecutionError struct {
	OrderID    int64
	ActionID   int64
	ActionType string
	Err        error
}

func (e *OrderExecutionError) Error() string {
	return fmt.Sprintf("order #%d: action #%d (%s): %v", e.OrderID, e.ActionID, e.ActionType, e.Err)
}

func (e *OrderExecutionError) Unwrap() error { return e.Err }

// ReferenceError names a missing referenced record.
type ReferenceError struct {
	Kind string
	ID   int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s #%d does not exist", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error { return ErrReferenceNotFound }
