package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrRecordNotFound is gorm's not-found error, re-exported so services need not import gorm for it.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("record violates a unique constraint")

// ListParams carries paging, sorting and free-text search for list queries.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string
}

// Normalize clamps paging values.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if strings.ToLower(p.SortOrder) != "asc" {
		p.SortOrder = "desc"
	} else {
		p.SortOrder = "asc"
	}
	return p
}

// Offset of the first row of the page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// orderClause resolves a client sort key through allowed, which maps API keys
// to column expressions, falling back to def.
func orderClause(p ListParams, allowed map[string]string, def string) string {
	col, ok := allowed[p.SortBy]
	if !ok {
		col = def
	}
	return col + " " + p.SortOrder
}

// IsUniqueViolation recognises sqlite and postgres unique errors, optionally
// restricted to one table.column.
func IsUniqueViolation(err error, column string) bool {
	return isUniqueViolation(err, column)
}

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique constraint") && !strings.Contains(msg, "duplicate key") {
		return false
	}
	if column == "" {
		return true
	}
	parts := strings.SplitN(strings.ToLower(column), ".", 2)
	return strings.Contains(msg, strings.ToLower(column)) || (len(parts) == 2 && strings.Contains(msg, parts[1]))
}

// translate maps low level errors to repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case isUniqueViolation(err, ""):
		return ErrDuplicate
	}
	return err
}
