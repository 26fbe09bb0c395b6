package models

// Unit corresponds to the units table. Units form a tree through ParentID.
type Unit struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"column:name;not null;size:255"`
	ParentID *int64 `json:"parentId,omitempty" gorm:"column:parent_id;index"`
	Parent   *Unit  `json:"-" gorm:"foreignKey:ParentID"`
}

// TableName maps Unit to the units table
func (Unit) TableName() string {
	return "units"
}

func (u Unit) String() string {
	return u.Name
}

func (u *Unit) AuditType() string { return "unit" }
func (u *Unit) AuditID() int64    { return u.ID }

func (u *Unit) AuditFields() map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"parent_id": u.ParentID,
	}
}

// UnitNode is a unit with its children, used for tree responses.
type UnitNode struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	ParentID *int64      `json:"parentId,omitempty"`
	Children []*UnitNode `json:"children"`
}

// BuildUnitTree arranges a flat unit list into root nodes. Units whose parent
// is missing from the list are treated as roots.
func BuildUnitTree(units []Unit) []*UnitNode {
	nodes := make(map[int64]*UnitNode, len(units))
	for _, u := range units {
		nodes[u.ID] = &UnitNode{ID: u.ID, Name: u.Name, ParentID: u.ParentID, Children: []*UnitNode{}}
	}
	roots := make([]*UnitNode, 0)
	for _, u := range units {
		node := nodes[u.ID]
		if u.ParentID != nil {
			if parent, ok := nodes[*u.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// DescendantIDs returns rootID and the ids of every unit below it.
func DescendantIDs(units []Unit, rootID int64) []int64 {
	children := make(map[int64][]int64)
	for _, u := range units {
		if u.ParentID != nil {
			children[*u.ParentID] = append(children[*u.ParentID], u.ID)
		}
	}
	ids := []int64{rootID}
	seen := map[int64]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids
}
