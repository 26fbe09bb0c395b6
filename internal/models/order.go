package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Order statuses.
const (
	OrderStatusDraft      = "DRAFT"
	OrderStatusOnApproval = "ON_APPROVAL"
	OrderStatusSigned     = "SIGNED"
	OrderStatusExecuted   = "EXECUTED"
	OrderStatusCanceled   = "CANCELED"
)

// Order types.
const (
	OrderTypePersonnel = "PERSONNEL" // по особовому складу
	OrderTypeService   = "SERVICE"   // по стройовій частині
)

// Order corresponds to the orders table
type Order struct {
	ID               int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNumber      string        `json:"orderNumber" gorm:"column:order_number;not null;size:50;index"`
	OrderDate        time.Time     `json:"orderDate" gorm:"column:order_date;type:date;not null"`
	OrderType        string        `json:"orderType" gorm:"column:order_type;not null;default:'PERSONNEL';size:20"`
	IssuingAuthority string        `json:"issuingAuthority" gorm:"column:issuing_authority;size:255"`
	Status           string        `json:"status" gorm:"column:status;not null;default:'DRAFT';size:20;index"`
	OrderText        string        `json:"orderText" gorm:"column:order_text;type:text"`
	CreatedByID      *int64        `json:"createdById,omitempty" gorm:"column:created_by_id"`
	CreatedAt        time.Time     `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt        time.Time     `json:"updatedAt" gorm:"column:updated_at;not null;autoUpdateTime"`
	Actions          []OrderAction `json:"actions,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName maps Order to the orders table
func (Order) TableName() string {
	return "orders"
}

// String renders the order reference written into history rows.
func (o Order) String() string {
	return fmt.Sprintf("Наказ №%s від %s", o.OrderNumber, o.OrderDate.Format("2006-01-02"))
}

// IsExecutable reports whether the order may be executed in its current status.
func (o Order) IsExecutable() bool {
	return o.Status == OrderStatusSigned || o.Status == OrderStatusOnApproval
}

// IsTerminal reports whether the order has reached EXECUTED or CANCELED.
func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusExecuted || o.Status == OrderStatusCanceled
}

func (o *Order) AuditType() string { return "order" }
func (o *Order) AuditID() int64    { return o.ID }

func (o *Order) AuditFields() map[string]any {
	return map[string]any{
		"id":                o.ID,
		"order_number":      o.OrderNumber,
		"order_date":        o.OrderDate,
		"order_type":        o.OrderType,
		"issuing_authority": o.IssuingAuthority,
		"status":            o.Status,
		"order_text":        o.OrderText,
		"created_by_id":     o.CreatedByID,
	}
}

// OrderAction corresponds to the order_actions table
type OrderAction struct {
	ID              int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID         int64          `json:"orderId" gorm:"column:order_id;not null;index"`
	ServiceMemberID int64          `json:"serviceMemberId" gorm:"column:service_member_id;not null;index"`
	ActionType      string         `json:"actionType" gorm:"column:action_type;not null;size:20"`
	Details         datatypes.JSON `json:"details" gorm:"column:details" swaggertype:"object"`
	ExecutionStatus bool           `json:"executionStatus" gorm:"column:execution_status;not null;default:false"`
	ServiceMember   *ServiceMember `json:"serviceMember,omitempty" gorm:"foreignKey:ServiceMemberID"`
}

// TableName maps OrderAction to the order_actions table
func (OrderAction) TableName() string {
	return "order_actions"
}

func (a OrderAction) String() string {
	return fmt.Sprintf("%s #%d (member %d)", a.ActionType, a.ID, a.ServiceMemberID)
}

func (a *OrderAction) AuditType() string { return "orderaction" }
func (a *OrderAction) AuditID() int64    { return a.ID }

func (a *OrderAction) AuditFields() map[string]any {
	return map[string]any{
		"id":                a.ID,
		"order_id":          a.OrderID,
		"service_member_id": a.ServiceMemberID,
		"action_type":       a.ActionType,
		"details":           a.Details,
		"execution_status":  a.ExecutionStatus,
	}
}
