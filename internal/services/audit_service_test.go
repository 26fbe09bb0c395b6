package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
)

func TestChangesDisplay(t *testing.T) {
	cases := []struct {
		name    string
		changes string
		want    string
	}{
		{"empty", ``, noChanges},
		{"create", `{"new":{"name":"Сержант","sort_order":10}}`, "name: — → Сержант\nsort_order: — → 10"},
		{"update", `{"old":{"status":"ON_DUTY","rank":"Солдат"},"new":{"status":"ON_LEAVE","rank":"Солдат"}}`, "status: ON_DUTY → ON_LEAVE"},
		{"null", `{"old":{"position":"Кулеметник"},"new":{"position":null}}`, "position: Кулеметник → —"},
		{"deleted only", `{"deleted":{"id":1}}`, noChanges},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := models.AuditLog{}
			if tc.changes != "" {
				row.Changes = datatypes.JSON(tc.changes)
			}
			assert.Equal(t, tc.want, ChangesDisplay(row))
		})
	}
}

func TestAuditServiceList(t *testing.T) {
	env := newTransitionEnv(t)
	personnel := NewPersonnelService(env.db, audit.NewRecorder(), NewTransitionService(env.db, audit.NewRecorder()))
	svc := NewAuditService(env.db)
	ctx := context.Background()

	m := env.fx.Member("Сірко", env.sergeant)
	officer := int64(11)
	_, err := personnel.GetMember(ctx, audit.Context{UserID: &officer}, m.ID)
	require.NoError(t, err)

	entries, total, err := svc.ListAuditLogs(ctx, repositories.AuditLogFilter{Action: models.AuditView, UserID: &officer})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "servicemember", entries[0].ObjectType)
	assert.Equal(t, noChanges, entries[0].ChangesDisplay)

	one, err := svc.GetAuditLog(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entries[0].ID, one.ID)
	_, err = svc.GetAuditLog(ctx, 9999)
	assert.ErrorIs(t, err, ErrAuditLogNotFound)
}
