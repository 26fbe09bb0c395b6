package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/testutil"
)

type changes struct {
	Old     map[string]any `json:"old"`
	New     map[string]any `json:"new"`
	Deleted map[string]any `json:"deleted"`
}

func auditRows(t *testing.T, db *gorm.DB) []models.AuditLog {
	t.Helper()
	var rows []models.AuditLog
	require.NoError(t, db.Order("id").Find(&rows).Error)
	return rows
}

func decode(t *testing.T, row models.AuditLog) changes {
	t.Helper()
	var c changes
	require.NoError(t, json.Unmarshal(row.Changes, &c))
	return c
}

func newMember(t *testing.T, db *gorm.DB) (*Recorder, *models.ServiceMember) {
	t.Helper()
	fx := testutil.NewFixture(t, db)
	rank := fx.Rank("Сержант", 5)
	rec := NewRecorder()
	tax := "1234567890"
	m := &models.ServiceMember{RankID: rank.ID, LastName: "Шевченко", FirstName: "Тарас", Status: models.StatusOnDuty, TaxIDNumber: &tax}
	require.NoError(t, rec.Save(db, System, m))
	require.NotZero(t, m.ID)
	return rec, m
}

func TestRecorder_CreateWritesFullSnapshot(t *testing.T) {
	db := testutil.NewDB(t)
	userID := int64(42)
	fx := testutil.NewFixture(t, db)
	rank := fx.Rank("Сержант", 5)
	rec := NewRecorder()

	m := &models.ServiceMember{RankID: rank.ID, LastName: "Шевченко", FirstName: "Тарас", Status: models.StatusOnDuty}
	require.NoError(t, rec.Save(db, Context{UserID: &userID, IPAddress: "10.0.0.1"}, m))

	rows := auditRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AuditCreate, rows[0].Action)
	assert.Equal(t, "servicemember", rows[0].ObjectType)
	require.NotNil(t, rows[0].ObjectID)
	assert.Equal(t, m.ID, *rows[0].ObjectID)
	assert.Equal(t, "Сержант Шевченко Тарас", rows[0].ObjectRepr)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, userID, *rows[0].UserID)
	assert.Equal(t, "10.0.0.1", rows[0].IPAddress)

	c := decode(t, rows[0])
	assert.Equal(t, "Сержант", c.New["rank"])
	assert.Equal(t, "Шевченко", c.New["last_name"])
	assert.Nil(t, c.New["position"])
	assert.Nil(t, c.Old)
}

func TestRecorder_UpdateRecordsOnlyChangedFields(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)

	m.LastName = "Франко"
	require.NoError(t, rec.Save(db, System, m))

	rows := auditRows(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AuditUpdate, rows[1].Action)
	assert.Nil(t, rows[1].UserID)
	c := decode(t, rows[1])
	assert.Equal(t, map[string]any{"last_name": "Шевченко"}, c.Old)
	assert.Equal(t, map[string]any{"last_name": "Франко"}, c.New)
}

func TestRecorder_NoopUpdateWritesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)

	require.NoError(t, rec.Save(db, System, m))

	assert.Len(t, auditRows(t, db), 1)
}

func TestRecorder_UpdateReadsStoredStateNotMemory(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)

	// a stale copy still says Шевченко, the store already says Франко
	require.NoError(t, db.Model(&models.ServiceMember{}).Where("id = ?", m.ID).Update("last_name", "Франко").Error)
	m.LastName = "Франко"
	m.FirstName = "Іван"
	require.NoError(t, rec.Save(db, System, m))

	rows := auditRows(t, db)
	require.Len(t, rows, 2)
	c := decode(t, rows[1])
	assert.Equal(t, map[string]any{"first_name": "Тарас"}, c.Old)
	assert.Equal(t, map[string]any{"first_name": "Іван"}, c.New)
}

func TestRecorder_SensitiveFieldAddsCriticalRow(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)

	m.PassportNumber = "АА123456"
	m.Status = models.StatusOnLeave
	require.NoError(t, rec.Save(db, System, m))

	rows := auditRows(t, db)
	require.Len(t, rows, 3)

	update := decode(t, rows[1])
	assert.Equal(t, models.SeverityInfo, rows[1].Severity)
	assert.Equal(t, "АА123456", update.New["passport_number"])
	assert.Equal(t, models.StatusOnLeave, update.New["status"])

	assert.Equal(t, models.SeverityCritical, rows[2].Severity)
	assert.Contains(t, rows[2].Notes, "passport_number")
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rows[2].Changes, &raw))
	assert.Equal(t, "passport_number", raw["field"])
	assert.Equal(t, "", raw["old"])
	assert.Equal(t, "АА123456", raw["new"])
}

func TestRecorder_DeleteSnapshotsBeforeDelete(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)

	create := decode(t, auditRows(t, db)[0])
	require.NoError(t, rec.Delete(db, System, m))

	var count int64
	require.NoError(t, db.Model(&models.ServiceMember{}).Where("id = ?", m.ID).Count(&count).Error)
	assert.Zero(t, count)

	rows := auditRows(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AuditDelete, rows[1].Action)
	assert.Equal(t, create.New, decode(t, rows[1]).Deleted)
}

func TestRecorder_AuditFailureRollsBackSave(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	m.LastName = "Франко"
	require.Error(t, rec.Save(db, System, m))

	var stored models.ServiceMember
	require.NoError(t, db.First(&stored, m.ID).Error)
	assert.Equal(t, "Шевченко", stored.LastName)
}

func TestRecorder_ViewedIsBestEffort(t *testing.T) {
	db := testutil.NewDB(t)
	rec, m := newMember(t, db)

	rec.Viewed(db, System, m)
	rows := auditRows(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AuditView, rows[1].Action)

	gone := &models.ServiceMember{ID: m.ID + 100}
	assert.NotPanics(t, func() { rec.Viewed(db, System, gone) })
	assert.Len(t, auditRows(t, db), 2)
}

func TestRecorder_LogWithoutEntity(t *testing.T) {
	db := testutil.NewDB(t)
	rec := NewRecorder()
	uid := int64(3)

	require.NoError(t, rec.Log(db, Context{UserID: &uid}, models.AuditLogin, nil, nil, "", "login"))

	rows := auditRows(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AuditLogin, rows[0].Action)
	assert.Equal(t, models.SeverityInfo, rows[0].Severity)
	assert.Empty(t, rows[0].ObjectType)
	assert.Nil(t, rows[0].ObjectID)
}

func TestDiff_UnionOfKeys(t *testing.T) {
	oldC, newC := Diff(
		map[string]any{"a": 1, "b": "x", "gone": true},
		map[string]any{"a": 1, "b": "y", "added": "z"},
	)
	assert.Equal(t, map[string]any{"b": "x", "gone": true, "added": nil}, oldC)
	assert.Equal(t, map[string]any{"b": "y", "gone": nil, "added": "z"}, newC)
}

func TestSerializeValue(t *testing.T) {
	tax := "1234567890"
	var nilStr *string
	dob := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"nil pointer", nilStr, nil},
		{"pointer", &tax, "1234567890"},
		{"date", dob, "1990-03-15"},
		{"date pointer", &dob, "1990-03-15"},
		{"timestamp", at, "2024-06-01T09:30:00Z"},
		{"bytes", []byte("ok\xff"), "ok�"},
		{"reference", models.Rank{ID: 1, Name: "Капітан"}, "Капітан"},
		{"int", int64(7), int64(7)},
		{"bool", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SerializeValue(tt.in))
		})
	}
}

func TestSerializeValue_FallsBackToString(t *testing.T) {
	got := SerializeValue(make(chan int))
	assert.IsType(t, "", got)
	assert.NotEmpty(t, got)
}
