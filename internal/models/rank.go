package models

// Rank corresponds to the ranks table. SortOrder ranks from lowest to highest.
type Rank struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string `json:"name" gorm:"column:name;unique;not null;size:100"`
	SortOrder int    `json:"sortOrder" gorm:"column:sort_order;not null;default:0"`
}

// TableName maps Rank to the ranks table
func (Rank) TableName() string {
	return "ranks"
}

func (r Rank) String() string {
	return r.Name
}

func (r *Rank) AuditType() string { return "rank" }
func (r *Rank) AuditID() int64    { return r.ID }

func (r *Rank) AuditFields() map[string]any {
	return map[string]any{
		"id":         r.ID,
		"name":       r.Name,
		"sort_order": r.SortOrder,
	}
}
