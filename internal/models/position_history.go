package models

import "time"

// PositionHistory corresponds to the position_history table. A row with a nil
// EndDate is the member's current tenure.
type PositionHistory struct {
	ID              int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ServiceMemberID int64      `json:"serviceMemberId" gorm:"column:service_member_id;not null;index"`
	PositionID      int64      `json:"positionId" gorm:"column:position_id;not null;index"`
	StartDate       time.Time  `json:"startDate" gorm:"column:start_date;type:date;not null"`
	EndDate         *time.Time `json:"endDate,omitempty" gorm:"column:end_date;type:date"`
	OrderReference  string     `json:"orderReference" gorm:"column:order_reference;size:255"`
	Position        *Position  `json:"position,omitempty" gorm:"foreignKey:PositionID"`
}

// TableName maps PositionHistory to the position_history table
func (PositionHistory) TableName() string {
	return "position_history"
}
