package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Order action types.
const (
	ActionAppoint    = "APPOINT"
	ActionTransfer   = "TRANSFER"
	ActionPromote    = "PROMOTE"
	ActionDismiss    = "DISMISS"
	ActionAward      = "AWARD"
	ActionReprimand  = "REPRIMAND"
	ActionExcludeKIA = "EXCLUDE_KIA"
)

// ActionTypes lists every valid OrderAction.ActionType value.
var ActionTypes = []string{ActionAppoint, ActionTransfer, ActionPromote, ActionDismiss, ActionAward, ActionReprimand, ActionExcludeKIA}

var (
	// ErrUnknownActionType is returned for an action type outside ActionTypes.
	ErrUnknownActionType = errors.New("unknown order action type")
	// ErrMalformedDetails is returned when the details document is not a JSON object of the expected shape.
	ErrMalformedDetails = errors.New("malformed order action details")
	// ErrMissingDetail is returned when a required details key is absent or empty.
	ErrMissingDetail = errors.New("required order action detail is missing")
)

// ActionDetails is the decoded, typed payload of an OrderAction.
type ActionDetails interface {
	ActionType() string
}

// AppointDetails is used by APPOINT and TRANSFER actions.
type AppointDetails struct {
	Type          string `json:"-"`
	NewPositionID int64  `json:"new_position_id"`
}

func (d AppointDetails) ActionType() string { return d.Type }

// PromoteDetails is used by PROMOTE actions.
type PromoteDetails struct {
	NewRankID int64 `json:"new_rank_id"`
}

func (PromoteDetails) ActionType() string { return ActionPromote }

// DismissDetails is used by DISMISS actions.
type DismissDetails struct {
	Reason string `json:"reason"`
}

func (DismissDetails) ActionType() string { return ActionDismiss }

// AwardDetails is used by AWARD actions.
type AwardDetails struct {
	Award string `json:"award"`
}

func (AwardDetails) ActionType() string { return ActionAward }

// ReprimandDetails is used by REPRIMAND actions.
type ReprimandDetails struct {
	Reason string `json:"reason"`
}

func (ReprimandDetails) ActionType() string { return ActionReprimand }

// ExcludeKIADetails is used by EXCLUDE_KIA actions.
type ExcludeKIADetails struct {
	DateOfDeath   *time.Time `json:"date_of_death,omitempty"`
	Circumstances string     `json:"circumstances,omitempty"`
}

func (ExcludeKIADetails) ActionType() string { return ActionExcludeKIA }

// DetailError describes a problem with one key of an action's details.
type DetailError struct {
	ActionType string
	Key        string
	Err        error
}

func (e *DetailError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.ActionType, e.Err)
	}
	return fmt.Sprintf("%s: %q: %v", e.ActionType, e.Key, e.Err)
}

func (e *DetailError) Unwrap() error { return e.Err }

// DecodeActionDetails validates raw against the shape required by actionType.
func DecodeActionDetails(actionType string, raw []byte) (ActionDetails, error) {
	fields := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(raw))) > 0 && strings.TrimSpace(string(raw)) != "null" {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, &DetailError{ActionType: actionType, Err: fmt.Errorf("%w: %v", ErrMalformedDetails, err)}
		}
	}

	switch actionType {
	case ActionAppoint, ActionTransfer:
		id, err := requiredID(actionType, fields, "new_position_id")
		if err != nil {
			return nil, err
		}
		return AppointDetails{Type: actionType, NewPositionID: id}, nil
	case ActionPromote:
		id, err := requiredID(actionType, fields, "new_rank_id")
		if err != nil {
			return nil, err
		}
		return PromoteDetails{NewRankID: id}, nil
	case ActionDismiss:
		reason, err := requiredString(actionType, fields, "reason")
		if err != nil {
			return nil, err
		}
		return DismissDetails{Reason: reason}, nil
	case ActionAward:
		award, err := requiredString(actionType, fields, "award")
		if err != nil {
			return nil, err
		}
		return AwardDetails{Award: award}, nil
	case ActionReprimand:
		reason, err := requiredString(actionType, fields, "reason")
		if err != nil {
			return nil, err
		}
		return ReprimandDetails{Reason: reason}, nil
	case ActionExcludeKIA:
		var d ExcludeKIADetails
		if v, ok := fields["circumstances"]; ok {
			if err := json.Unmarshal(v, &d.Circumstances); err != nil {
				return nil, &DetailError{ActionType: actionType, Key: "circumstances", Err: ErrMalformedDetails}
			}
		}
		if v, ok := fields["date_of_death"]; ok && string(v) != "null" {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, &DetailError{ActionType: actionType, Key: "date_of_death", Err: ErrMalformedDetails}
			}
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				return nil, &DetailError{ActionType: actionType, Key: "date_of_death", Err: ErrMalformedDetails}
			}
			d.DateOfDeath = &t
		}
		return d, nil
	default:
		return nil, &DetailError{ActionType: actionType, Err: ErrUnknownActionType}
	}
}

// EncodeActionDetails is the inverse of DecodeActionDetails.
func EncodeActionDetails(d ActionDetails) ([]byte, error) {
	if kia, ok := d.(ExcludeKIADetails); ok {
		out := map[string]any{}
		if kia.DateOfDeath != nil {
			out["date_of_death"] = kia.DateOfDeath.Format("2006-01-02")
		}
		if kia.Circumstances != "" {
			out["circumstances"] = kia.Circumstances
		}
		return json.Marshal(out)
	}
	return json.Marshal(d)
}

// requiredID accepts both JSON numbers and numeric strings, since ids typed
// into forms often arrive quoted.
func requiredID(actionType string, fields map[string]json.RawMessage, key string) (int64, error) {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return 0, &DetailError{ActionType: actionType, Key: key, Err: ErrMissingDetail}
	}
	var id int64
	if err := json.Unmarshal(v, &id); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, &DetailError{ActionType: actionType, Key: key, Err: ErrMalformedDetails}
		}
		if _, err := fmt.Sscanf(s, "%d", &id); err != nil || fmt.Sprint(id) != strings.TrimSpace(s) {
			return 0, &DetailError{ActionType: actionType, Key: key, Err: ErrMalformedDetails}
		}
	}
	if id <= 0 {
		return 0, &DetailError{ActionType: actionType, Key: key, Err: ErrMalformedDetails}
	}
	return id, nil
}

func requiredString(actionType string, fields map[string]json.RawMessage, key string) (string, error) {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return "", &DetailError{ActionType: actionType, Key: key, Err: ErrMissingDetail}
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &DetailError{ActionType: actionType, Key: key, Err: ErrMalformedDetails}
	}
	if strings.TrimSpace(s) == "" {
		return "", &DetailError{ActionType: actionType, Key: key, Err: ErrMissingDetail}
	}
	return s, nil
}
