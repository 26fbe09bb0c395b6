package models

import "time"

// User roles. They double as casbin subjects.
const (
	RoleAdmin            = "admin"
	RolePersonnelOfficer = "personnel_officer"
	RoleCommander        = "commander"
	RoleStaffOfficer     = "staff_officer"
)

// Roles lists every valid User.Role value.
var Roles = []string{RoleAdmin, RolePersonnelOfficer, RoleCommander, RoleStaffOfficer}

// User corresponds to the users table
type User struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string     `json:"username" gorm:"column:username;unique;not null;size:150"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null;size:255"` // never exposed over JSON
	Role         string     `json:"role" gorm:"column:role;not null;default:'staff_officer';size:50"`
	LastName     string     `json:"lastName" gorm:"column:last_name;size:100"`
	FirstName    string     `json:"firstName" gorm:"column:first_name;size:100"`
	MiddleName   string     `json:"middleName" gorm:"column:middle_name;size:100"`
	IsActive     bool       `json:"isActive" gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" gorm:"column:last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt    time.Time  `json:"updatedAt" gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName maps User to the users table
func (User) TableName() string {
	return "users"
}

func (u User) String() string {
	return u.Username
}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) AuditType() string { return "user" }
func (u *User) AuditID() int64    { return u.ID }

// AuditFields leaves out the password hash.
func (u *User) AuditFields() map[string]any {
	return map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"role":        u.Role,
		"last_name":   u.LastName,
		"first_name":  u.FirstName,
		"middle_name": u.MiddleName,
		"is_active":   u.IsActive,
	}
}
