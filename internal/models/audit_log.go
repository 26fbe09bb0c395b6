package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions.
const (
	AuditCreate           = "CREATE"
	AuditUpdate           = "UPDATE"
	AuditDelete           = "DELETE"
	AuditView             = "VIEW"
	AuditExport           = "EXPORT"
	AuditLogin            = "LOGIN"
	AuditLogout           = "LOGOUT"
	AuditPermissionChange = "PERMISSION_CHANGE"
)

// Audit severities.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// AuditLog corresponds to the audit_logs table. The object reference is a
// (type, id) pair with no foreign key so rows outlive the entities they describe.
type AuditLog struct {
	ID         int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     *int64         `json:"userId,omitempty" gorm:"column:user_id;index"` // nil for system actions
	Action     string         `json:"action" gorm:"column:action;not null;size:20;index"`
	Timestamp  time.Time      `json:"timestamp" gorm:"column:timestamp;not null;index"`
	ObjectType string         `json:"objectType" gorm:"column:object_type;size:100;index:idx_audit_object"`
	ObjectID   *int64         `json:"objectId,omitempty" gorm:"column:object_id;index:idx_audit_object"`
	ObjectRepr string         `json:"objectRepr" gorm:"column:object_repr;size:255"`
	Changes    datatypes.JSON `json:"changes,omitempty" gorm:"column:changes" swaggertype:"object"`
	IPAddress  string         `json:"ipAddress,omitempty" gorm:"column:ip_address;size:45"`
	UserAgent  string         `json:"userAgent,omitempty" gorm:"column:user_agent;type:text"`
	SessionKey string         `json:"sessionKey,omitempty" gorm:"column:session_key;size:64"`
	Severity   string         `json:"severity" gorm:"column:severity;not null;default:'INFO';size:10"`
	Notes      string         `json:"notes,omitempty" gorm:"column:notes;type:text"`
}

// TableName maps AuditLog to the audit_logs table
func (AuditLog) TableName() string {
	return "audit_logs"
}
