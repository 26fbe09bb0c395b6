package models

import (
	"fmt"
	"strings"
	"time"
)

// Service member statuses.
const (
	StatusOnDuty    = "ON_DUTY"
	StatusOnLeave   = "ON_LEAVE"
	StatusSickLeave = "SICK_LEAVE"
	StatusAWOL      = "AWOL"
	StatusDismissed = "DISMISSED"
	StatusKIA       = "KIA"
	StatusMIA       = "MIA"
)

// MemberStatuses lists every valid ServiceMember.Status value.
var MemberStatuses = []string{StatusOnDuty, StatusOnLeave, StatusSickLeave, StatusAWOL, StatusDismissed, StatusKIA, StatusMIA}

// IsValidMemberStatus reports whether s is a known status.
func IsValidMemberStatus(s string) bool {
	for _, v := range MemberStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ServiceMember corresponds to the service_members table
type ServiceMember struct {
	ID             int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         *int64     `json:"userId,omitempty" gorm:"column:user_id;uniqueIndex"`
	PositionID     *int64     `json:"positionId,omitempty" gorm:"column:position_id;uniqueIndex"` // one member per position
	RankID         int64      `json:"rankId" gorm:"column:rank_id;not null;index"`
	LastName       string     `json:"lastName" gorm:"column:last_name;not null;size:100"`
	FirstName      string     `json:"firstName" gorm:"column:first_name;not null;size:100"`
	MiddleName     string     `json:"middleName" gorm:"column:middle_name;size:100"`
	Status         string     `json:"status" gorm:"column:status;not null;default:'ON_DUTY';size:20"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty" gorm:"column:date_of_birth;type:date"`
	PlaceOfBirth   string     `json:"placeOfBirth" gorm:"column:place_of_birth;size:255"`
	TaxIDNumber    *string    `json:"taxIdNumber,omitempty" gorm:"column:tax_id_number;uniqueIndex;size:10"` // РНОКПП
	PassportNumber string     `json:"passportNumber" gorm:"column:passport_number;size:20"`
	CreatedAt      time.Time  `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt      time.Time  `json:"updatedAt" gorm:"column:updated_at;not null;autoUpdateTime"`
	Rank           Rank       `json:"rank" gorm:"foreignKey:RankID"`
	Position       *Position  `json:"position,omitempty" gorm:"foreignKey:PositionID"`
}

// TableName maps ServiceMember to the service_members table
func (ServiceMember) TableName() string {
	return "service_members"
}

func (m ServiceMember) String() string {
	parts := make([]string, 0, 3)
	if m.Rank.Name != "" {
		parts = append(parts, m.Rank.Name)
	}
	parts = append(parts, m.LastName, m.FirstName)
	return strings.Join(parts, " ")
}

// FullName returns "Last First Middle".
func (m ServiceMember) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", m.LastName, m.FirstName, m.MiddleName))
}

// Age in whole years at the given moment; -1 when the birth date is unknown.
func (m ServiceMember) Age(at time.Time) int {
	if m.DateOfBirth == nil {
		return -1
	}
	dob := *m.DateOfBirth
	age := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		age--
	}
	return age
}

func (m *ServiceMember) AuditType() string { return "servicemember" }
func (m *ServiceMember) AuditID() int64    { return m.ID }

func (m *ServiceMember) AuditPreloads() []string {
	return []string{"Rank", "Position", "Position.Unit"}
}

func (m *ServiceMember) SensitiveFields() []string {
	return []string{"tax_id_number", "passport_number", "date_of_birth"}
}

func (m *ServiceMember) AuditFields() map[string]any {
	var position any
	if m.PositionID != nil {
		position = *m.PositionID
		if m.Position != nil && m.Position.ID == *m.PositionID {
			position = *m.Position
		}
	}
	return map[string]any{
		"id":              m.ID,
		"user_id":         m.UserID,
		"position":        position,
		"rank":            reference(m.RankID, m.Rank.ID, m.Rank),
		"last_name":       m.LastName,
		"first_name":      m.FirstName,
		"middle_name":     m.MiddleName,
		"status":          m.Status,
		"date_of_birth":   m.DateOfBirth,
		"place_of_birth":  m.PlaceOfBirth,
		"tax_id_number":   m.TaxIDNumber,
		"passport_number": m.PassportNumber,
	}
}

// Contract corresponds to the contracts table
type Contract struct {
	ID              int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	ServiceMemberID int64          `json:"serviceMemberId" gorm:"column:service_member_id;not null;index"`
	StartDate       time.Time      `json:"startDate" gorm:"column:start_date;type:date;not null"`
	EndDate         time.Time      `json:"endDate" gorm:"column:end_date;type:date;not null;index"`
	Details         string         `json:"details" gorm:"column:details;type:text"`
	ServiceMember   *ServiceMember `json:"serviceMember,omitempty" gorm:"foreignKey:ServiceMemberID"`
}

// TableName maps Contract to the contracts table
func (Contract) TableName() string {
	return "contracts"
}

func (c Contract) String() string {
	return fmt.Sprintf("Contract %s - %s", c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"))
}

func (c *Contract) AuditType() string { return "contract" }
func (c *Contract) AuditID() int64    { return c.ID }

func (c *Contract) AuditFields() map[string]any {
	return map[string]any{
		"id":                c.ID,
		"service_member_id": c.ServiceMemberID,
		"start_date":        c.StartDate,
		"end_date":          c.EndDate,
		"details":           c.Details,
	}
}

// DaysLeft returns the number of whole days from at until the contract end.
func (c Contract) DaysLeft(at time.Time) int {
	return int(c.EndDate.Sub(truncateDay(at)).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
