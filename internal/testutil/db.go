// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/personnel_accounting/configs"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/pkg/db"
)

// NewDB returns a migrated in-memory sqlite database closed at test cleanup.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(configs.DatabaseOptions{Type: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixture creates reference rows with predictable names.
type Fixture struct {
	t  *testing.T
	db *gorm.DB
	n  int
}

// NewFixture binds a fixture builder to db.
func NewFixture(t *testing.T, conn *gorm.DB) *Fixture {
	return &Fixture{t: t, db: conn}
}

func (f *Fixture) next() int {
	f.n++
	return f.n
}

// Rank creates a rank.
func (f *Fixture) Rank(name string, order int) *models.Rank {
	f.t.Helper()
	r := &models.Rank{Name: name, SortOrder: order}
	require.NoError(f.t, f.db.Create(r).Error)
	return r
}

// Unit creates a unit under parent (nil for a root).
func (f *Fixture) Unit(name string, parent *models.Unit) *models.Unit {
	f.t.Helper()
	u := &models.Unit{Name: name}
	if parent != nil {
		u.ParentID = &parent.ID
	}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

// Position creates a vacant position in unit.
func (f *Fixture) Position(name string, unit *models.Unit) *models.Position {
	f.t.Helper()
	p := &models.Position{UnitID: unit.ID, Name: name, PositionIndex: fmt.Sprintf("IDX-%03d", f.next()), Category: "sergeant"}
	require.NoError(f.t, f.db.Create(p).Error)
	p.Unit = *unit
	return p
}

// Member creates an on-duty member with the given rank and no position.
func (f *Fixture) Member(lastName string, rank *models.Rank) *models.ServiceMember {
	f.t.Helper()
	dob := Date(1990, time.March, 15)
	m := &models.ServiceMember{
		RankID:      rank.ID,
		LastName:    lastName,
		FirstName:   "Іван",
		MiddleName:  "Петрович",
		Status:      models.StatusOnDuty,
		DateOfBirth: &dob,
	}
	require.NoError(f.t, f.db.Create(m).Error)
	m.Rank = *rank
	return m
}
