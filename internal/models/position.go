package models

import "fmt"

// Position corresponds to the positions table. A position is vacant unless a
// ServiceMember row points at it through position_id.
type Position struct {
	ID            int64              `json:"id" gorm:"primaryKey;autoIncrement"`
	UnitID        int64              `json:"unitId" gorm:"column:unit_id;not null;index"`
	PositionIndex string             `json:"positionIndex" gorm:"column:position_index;unique;not null;size:50"` // staffing table index
	Name          string             `json:"name" gorm:"column:name;not null;size:255"`
	Category      string             `json:"category" gorm:"column:category;size:100"` // rank tier required by the slot
	SpecialtyID   *int64             `json:"specialtyId,omitempty" gorm:"column:specialty_id"`
	TariffRate    float64            `json:"tariffRate" gorm:"column:tariff_rate;not null;default:0"`
	Unit          Unit               `json:"unit" gorm:"foreignKey:UnitID"`
	Specialty     *MilitarySpecialty `json:"specialty,omitempty" gorm:"foreignKey:SpecialtyID"`
	Occupant      *ServiceMember     `json:"occupant,omitempty" gorm:"foreignKey:PositionID"`
}

// TableName maps Position to the positions table
func (Position) TableName() string {
	return "positions"
}

func (p Position) String() string {
	if p.Unit.ID == 0 {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Unit.Name)
}

func (p *Position) AuditType() string { return "position" }
func (p *Position) AuditID() int64    { return p.ID }

func (p *Position) AuditPreloads() []string {
	return []string{"Unit", "Specialty"}
}

func (p *Position) AuditFields() map[string]any {
	var specialty any
	if p.SpecialtyID != nil {
		specialty = *p.SpecialtyID
		if p.Specialty != nil && p.Specialty.ID == *p.SpecialtyID {
			specialty = *p.Specialty
		}
	}
	return map[string]any{
		"id":             p.ID,
		"unit":           reference(p.UnitID, p.Unit.ID, p.Unit),
		"position_index": p.PositionIndex,
		"name":           p.Name,
		"category":       p.Category,
		"specialty":      specialty,
		"tariff_rate":    p.TariffRate,
	}
}

// reference returns the loaded association when it matches the foreign key,
// otherwise the raw key.
func reference(fk, loadedID int64, loaded fmt.Stringer) any {
	if fk != 0 && fk == loadedID {
		return loaded
	}
	return fk
}
