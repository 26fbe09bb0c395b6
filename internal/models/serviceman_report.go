package models

import (
	"fmt"
	"time"
)

// Report types.
const (
	ReportTypeLeave     = "LEAVE"
	ReportTypeTransfer  = "TRANSFER"
	ReportTypeDismissal = "DISMISSAL"
	ReportTypeFinancial = "FINANCIAL"
	ReportTypeMaterial  = "MATERIAL"
	ReportTypeOther     = "OTHER"
)

// Report statuses.
const (
	ReportStatusDraft       = "DRAFT"
	ReportStatusSubmitted   = "SUBMITTED"
	ReportStatusUnderReview = "UNDER_REVIEW"
	ReportStatusApproved    = "APPROVED"
	ReportStatusRejected    = "REJECTED"
	ReportStatusArchived    = "ARCHIVED"
)

// ReportTypes lists every valid ServicemanReport.ReportType value.
var ReportTypes = []string{ReportTypeLeave, ReportTypeTransfer, ReportTypeDismissal, ReportTypeFinancial, ReportTypeMaterial, ReportTypeOther}

// ServicemanReport corresponds to the serviceman_reports table (рапорти).
type ServicemanReport struct {
	ID                  int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	RegistrationNumber  string         `json:"registrationNumber" gorm:"column:registration_number;unique;not null;size:50"`
	SubmissionDate      time.Time      `json:"submissionDate" gorm:"column:submission_date;type:date;not null"`
	ReportType          string         `json:"reportType" gorm:"column:report_type;not null;size:20"`
	Status              string         `json:"status" gorm:"column:status;not null;default:'DRAFT';size:20;index"`
	AuthorID            int64          `json:"authorId" gorm:"column:author_id;not null;index"`
	RecipientPositionID *int64         `json:"recipientPositionId,omitempty" gorm:"column:recipient_position_id"`
	Summary             string         `json:"summary" gorm:"column:summary;size:255"`
	FullText            string         `json:"fullText" gorm:"column:full_text;type:text"`
	AttachmentPath      *string        `json:"attachmentPath,omitempty" gorm:"column:attachment_path;size:500"`
	Resolution          string         `json:"resolution,omitempty" gorm:"column:resolution;type:text"`
	ReviewedByID        *int64         `json:"reviewedById,omitempty" gorm:"column:reviewed_by_id"`
	CreatedAt           time.Time      `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt           time.Time      `json:"updatedAt" gorm:"column:updated_at;not null;autoUpdateTime"`
	Author              *ServiceMember `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	RecipientPosition   *Position      `json:"recipientPosition,omitempty" gorm:"foreignKey:RecipientPositionID"`
}

// TableName maps ServicemanReport to the serviceman_reports table
func (ServicemanReport) TableName() string {
	return "serviceman_reports"
}

func (r ServicemanReport) String() string {
	return fmt.Sprintf("Рапорт №%s від %s", r.RegistrationNumber, r.SubmissionDate.Format("2006-01-02"))
}

func (r *ServicemanReport) AuditType() string { return "servicemanreport" }
func (r *ServicemanReport) AuditID() int64    { return r.ID }

func (r *ServicemanReport) AuditFields() map[string]any {
	return map[string]any{
		"id":                    r.ID,
		"registration_number":   r.RegistrationNumber,
		"submission_date":       r.SubmissionDate,
		"report_type":           r.ReportType,
		"status":                r.Status,
		"author_id":             r.AuthorID,
		"recipient_position_id": r.RecipientPositionID,
		"summary":               r.Summary,
		"full_text":             r.FullText,
		"attachment_path":       r.AttachmentPath,
		"resolution":            r.Resolution,
		"reviewed_by_id":        r.ReviewedByID,
	}
}
