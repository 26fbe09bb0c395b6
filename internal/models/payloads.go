package models

import "encoding/json"

// Request payloads shared by handlers and services. Dates are YYYY-MM-DD.

// ServiceMemberCreatePayload is the body of POST /servicemembers
type ServiceMemberCreatePayload struct {
	LastName       string  `json:"lastName" binding:"required,max=100"`
	FirstName      string  `json:"firstName" binding:"required,max=100"`
	MiddleName     string  `json:"middleName" binding:"max=100"`
	RankID         int64   `json:"rankId" binding:"required,gt=0"`
	Status         string  `json:"status"`
	DateOfBirth    *string `json:"dateOfBirth"`
	PlaceOfBirth   string  `json:"placeOfBirth"`
	TaxIDNumber    *string `json:"taxIdNumber" binding:"omitempty,taxid"`
	PassportNumber string  `json:"passportNumber" binding:"max=20"`
	UserID         *int64  `json:"userId"`
	EnlistmentDate *string `json:"enlistmentDate"`
}

// ServiceMemberUpdatePayload is the body of PUT /servicemembers/:id. Rank and
// position change only through transitions.
type ServiceMemberUpdatePayload struct {
	LastName       *string `json:"lastName" binding:"omitempty,max=100"`
	FirstName      *string `json:"firstName" binding:"omitempty,max=100"`
	MiddleName     *string `json:"middleName" binding:"omitempty,max=100"`
	Status         *string `json:"status"`
	DateOfBirth    *string `json:"dateOfBirth"`
	PlaceOfBirth   *string `json:"placeOfBirth"`
	TaxIDNumber    *string `json:"taxIdNumber" binding:"omitempty,taxid"`
	PassportNumber *string `json:"passportNumber" binding:"omitempty,max=20"`
}

// AssignPositionPayload is the body of POST /servicemembers/:id/assign
type AssignPositionPayload struct {
	PositionID     int64  `json:"positionId" binding:"required,gt=0"`
	OrderReference string `json:"orderReference" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Transfer       bool   `json:"transfer"` // record TRANSFER instead of APPOINTMENT
}

// PromotePayload is the body of POST /servicemembers/:id/promote
type PromotePayload struct {
	RankID         int64  `json:"rankId" binding:"required,gt=0"`
	OrderReference string `json:"orderReference" binding:"required"`
	Date           string `json:"date" binding:"required"`
}

// DismissPayload is the body of POST /servicemembers/:id/dismiss
type DismissPayload struct {
	Reason         string `json:"reason" binding:"required"`
	OrderReference string `json:"orderReference" binding:"required"`
	Date           string `json:"date" binding:"required"`
}

// ContractPayload is the body of POST /servicemembers/:id/contracts
type ContractPayload struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	Details   string `json:"details"`
}

// RankPayload is the body of POST /ranks
type RankPayload struct {
	Name      string `json:"name" binding:"required,max=100"`
	SortOrder int    `json:"sortOrder" binding:"gte=0"`
}

// UnitPayload is the body of POST /units
type UnitPayload struct {
	Name     string `json:"name" binding:"required,max=255"`
	ParentID *int64 `json:"parentId"`
}

// SpecialtyPayload is the body of POST /specialties
type SpecialtyPayload struct {
	Code string `json:"code" binding:"required,max=20"`
	Name string `json:"name" binding:"required,max=255"`
}

// PositionPayload is the body of POST /positions
type PositionPayload struct {
	UnitID        int64   `json:"unitId" binding:"required,gt=0"`
	PositionIndex string  `json:"positionIndex" binding:"required,max=50"`
	Name          string  `json:"name" binding:"required,max=255"`
	Category      string  `json:"category" binding:"max=100"`
	SpecialtyID   *int64  `json:"specialtyId"`
	TariffRate    float64 `json:"tariffRate" binding:"gte=0"`
}

// PositionUpdatePayload is the body of PUT /positions/:id
type PositionUpdatePayload struct {
	UnitID        *int64   `json:"unitId" binding:"omitempty,gt=0"`
	PositionIndex *string  `json:"positionIndex" binding:"omitempty,max=50"`
	Name          *string  `json:"name" binding:"omitempty,max=255"`
	Category      *string  `json:"category" binding:"omitempty,max=100"`
	SpecialtyID   *int64   `json:"specialtyId"`
	TariffRate    *float64 `json:"tariffRate" binding:"omitempty,gte=0"`
}

// OrderCreatePayload is the body of POST /orders
type OrderCreatePayload struct {
	OrderNumber      string `json:"orderNumber" binding:"required,max=50"`
	OrderDate        string `json:"orderDate" binding:"required"`
	OrderType        string `json:"orderType" binding:"omitempty,oneof=PERSONNEL SERVICE"`
	IssuingAuthority string `json:"issuingAuthority" binding:"max=255"`
	OrderText        string `json:"orderText"`
}

// OrderUpdatePayload is the body of PUT /orders/:id
type OrderUpdatePayload struct {
	OrderNumber      *string `json:"orderNumber" binding:"omitempty,max=50"`
	OrderDate        *string `json:"orderDate"`
	OrderType        *string `json:"orderType" binding:"omitempty,oneof=PERSONNEL SERVICE"`
	IssuingAuthority *string `json:"issuingAuthority" binding:"omitempty,max=255"`
	OrderText        *string `json:"orderText"`
}

// OrderActionPayload is the body of POST /orders/:id/actions
type OrderActionPayload struct {
	ServiceMemberID int64           `json:"serviceMemberId" binding:"required,gt=0"`
	ActionType      string          `json:"actionType" binding:"required"`
	Details         json.RawMessage `json:"details" swaggertype:"object"`
}

// BulkExecutePayload is the body of POST /orders/execute
type BulkExecutePayload struct {
	OrderIDs []int64 `json:"orderIds" binding:"required,min=1"`
}

// ServicemanReportPayload is the body of POST /reports
type ServicemanReportPayload struct {
	RegistrationNumber  string `json:"registrationNumber" binding:"required,max=50"`
	SubmissionDate      string `json:"submissionDate" binding:"required"`
	ReportType          string `json:"reportType" binding:"required"`
	AuthorID            int64  `json:"authorId" binding:"required,gt=0"`
	RecipientPositionID *int64 `json:"recipientPositionId"`
	Summary             string `json:"summary" binding:"required,max=255"`
	FullText            string `json:"fullText"`
	Submit              bool   `json:"submit"` // create as SUBMITTED instead of DRAFT
}

// ServicemanReportUpdatePayload is the body of PUT /reports/:id
type ServicemanReportUpdatePayload struct {
	ReportType          *string `json:"reportType"`
	RecipientPositionID *int64  `json:"recipientPositionId"`
	Summary             *string `json:"summary" binding:"omitempty,max=255"`
	FullText            *string `json:"fullText"`
	Submit              bool    `json:"submit"`
}

// ReportReviewPayload is the body of POST /reports/:id/review
type ReportReviewPayload struct {
	Status     string `json:"status" binding:"required,oneof=UNDER_REVIEW APPROVED REJECTED ARCHIVED"`
	Resolution string `json:"resolution"`
}
