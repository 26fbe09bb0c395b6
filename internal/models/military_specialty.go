package models

import "fmt"

// MilitarySpecialty corresponds to the military_specialties table (ВОС).
type MilitarySpecialty struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Code string `json:"code" gorm:"column:code;unique;not null;size:20"`
	Name string `json:"name" gorm:"column:name;not null;size:255"`
}

// TableName maps MilitarySpecialty to the military_specialties table
func (MilitarySpecialty) TableName() string {
	return "military_specialties"
}

func (s MilitarySpecialty) String() string {
	return fmt.Sprintf("%s - %s", s.Code, s.Name)
}

func (s *MilitarySpecialty) AuditType() string { return "militaryspecialty" }
func (s *MilitarySpecialty) AuditID() int64    { return s.ID }

func (s *MilitarySpecialty) AuditFields() map[string]any {
	return map[string]any{
		"id":   s.ID,
		"code": s.Code,
		"name": s.Name,
	}
}
