package models

import (
	"time"

	"gorm.io/datatypes"
)

// Service history event types.
const (
	EventEnlistment  = "ENLISTMENT"
	EventAppointment = "APPOINTMENT"
	EventTransfer    = "TRANSFER"
	EventPromotion   = "PROMOTION"
	EventDismissal   = "DISMISSAL"
	EventDeath       = "DEATH"
	EventAward       = "AWARD"
	EventReprimand   = "REPRIMAND"
)

// ServiceHistoryEvent corresponds to the service_history_events table. Rows are
// append-only.
type ServiceHistoryEvent struct {
	ID              int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	ServiceMemberID int64          `json:"serviceMemberId" gorm:"column:service_member_id;not null;index"`
	EventType       string         `json:"eventType" gorm:"column:event_type;not null;size:20;index"`
	EventDate       time.Time      `json:"eventDate" gorm:"column:event_date;type:date;not null;index"`
	Details         datatypes.JSON `json:"details" gorm:"column:details" swaggertype:"object"`
	OrderReference  string         `json:"orderReference" gorm:"column:order_reference;size:255"`
	CreatedAt       time.Time      `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
	ServiceMember   *ServiceMember `json:"serviceMember,omitempty" gorm:"foreignKey:ServiceMemberID"`
}

// TableName maps ServiceHistoryEvent to the service_history_events table
func (ServiceHistoryEvent) TableName() string {
	return "service_history_events"
}

// TransferDetails is the payload of APPOINTMENT and TRANSFER events.
type TransferDetails struct {
	FromPositionID   *int64 `json:"from_position_id"`
	FromPositionName string `json:"from_position_name"`
	ToPositionID     int64  `json:"to_position_id"`
	ToPositionName   string `json:"to_position_name"`
}

// PromotionDetails is the payload of PROMOTION events.
type PromotionDetails struct {
	PreviousRank string `json:"previous_rank"`
	NewRank      string `json:"new_rank"`
}

// DismissalDetails is the payload of DISMISSAL events.
type DismissalDetails struct {
	Reason string `json:"reason"`
}

// NoPreviousPosition is recorded as from_position_name on a first appointment.
const NoPreviousPosition = "Не було"
