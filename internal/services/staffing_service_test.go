package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/testutil"
)

func TestStaffingReferenceData(t *testing.T) {
	env := newTransitionEnv(t)
	svc := NewStaffingService(env.db, audit.NewRecorder())
	ctx := context.Background()

	_, err := svc.CreateRank(ctx, audit.System, models.RankPayload{Name: "Сержант", SortOrder: 3})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.CreateRank(ctx, audit.System, models.RankPayload{Name: " "})
	assert.ErrorIs(t, err, ErrValidationInput)

	assert.ErrorIs(t, svc.DeleteRank(ctx, audit.System, 404), ErrRankNotFound)
	env.fx.Member("Гончар", env.sergeant)
	assert.ErrorIs(t, svc.DeleteRank(ctx, audit.System, env.sergeant.ID), ErrRankInUse)
	spare, err := svc.CreateRank(ctx, audit.System, models.RankPayload{Name: "Рекрут", SortOrder: 0})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRank(ctx, audit.System, spare.ID))

	spec, err := svc.CreateSpecialty(ctx, audit.System, models.SpecialtyPayload{Code: "100915А", Name: "Стрілецька"})
	require.NoError(t, err)
	_, err = svc.CreateSpecialty(ctx, audit.System, models.SpecialtyPayload{Code: "100915А", Name: "Дубль"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "100915А - Стрілецька", spec.String())
}

func TestCreateSpecialtyWritesAuditRow(t *testing.T) {
	env := newTransitionEnv(t)
	svc := NewStaffingService(env.db, audit.NewRecorder())

	spec, err := svc.CreateSpecialty(context.Background(), audit.System, models.SpecialtyPayload{Code: "800100", Name: "Оператор БПЛА"})
	require.NoError(t, err)
	require.NotZero(t, spec.ID)

	var row models.AuditLog
	require.NoError(t, env.db.Where("object_type = ? AND object_id = ?", "militaryspecialty", spec.ID).First(&row).Error)
	assert.Equal(t, models.AuditCreate, row.Action)
	assert.Nil(t, row.UserID)

	var changes map[string]map[string]any
	require.NoError(t, json.Unmarshal(row.Changes, &changes))
	assert.Equal(t, "800100", changes["new"]["code"])
	assert.Equal(t, "Оператор БПЛА", changes["new"]["name"])
}

func TestUnitTreeAndScope(t *testing.T) {
	env := newTransitionEnv(t)
	svc := NewStaffingService(env.db, audit.NewRecorder())
	ctx := context.Background()

	company, err := svc.CreateUnit(ctx, audit.System, models.UnitPayload{Name: "1 рота", ParentID: &env.unit.ID})
	require.NoError(t, err)
	platoon, err := svc.CreateUnit(ctx, audit.System, models.UnitPayload{Name: "1 взвод", ParentID: &company.ID})
	require.NoError(t, err)
	missing := int64(999)
	_, err = svc.CreateUnit(ctx, audit.System, models.UnitPayload{Name: "x", ParentID: &missing})
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	tree, err := svc.UnitTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, platoon.ID, tree[0].Children[0].Children[0].ID)

	scope, err := svc.UnitScope(ctx, company.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{company.ID, platoon.ID}, scope)
	_, err = svc.UnitScope(ctx, missing)
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestPositionLifecycle(t *testing.T) {
	env := newTransitionEnv(t)
	recorder := audit.NewRecorder()
	svc := NewStaffingService(env.db, recorder)
	transitions := NewTransitionService(env.db, recorder)
	ctx := context.Background()

	p, err := svc.CreatePosition(ctx, audit.System, models.PositionPayload{UnitID: env.unit.ID, PositionIndex: "01001", Name: "Командир взводу", TariffRate: 12})
	require.NoError(t, err)
	assert.Equal(t, env.unit.Name, p.Unit.Name)

	_, err = svc.CreatePosition(ctx, audit.System, models.PositionPayload{UnitID: env.unit.ID, PositionIndex: "01001", Name: "Дубль"})
	assert.ErrorIs(t, err, ErrPositionIndexExists)
	_, err = svc.CreatePosition(ctx, audit.System, models.PositionPayload{UnitID: 999, PositionIndex: "01002", Name: "x"})
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	name := "Командир 1 взводу"
	updated, err := svc.UpdatePosition(ctx, audit.System, p.ID, models.PositionUpdatePayload{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	vacant, err := svc.VacantPositions(ctx, env.unit.ID)
	require.NoError(t, err)
	assert.Len(t, vacant, 1)

	m := env.fx.Member("Кривоніс", env.sergeant)
	require.NoError(t, transitions.AssignPosition(ctx, nil, audit.System, m, p, "Order-1", testutil.Date(2024, time.January, 1), models.EventAppointment))

	vacant, err = svc.VacantPositions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, vacant)
	assert.ErrorIs(t, svc.DeletePosition(ctx, audit.System, p.ID), ErrPositionHeld)

	require.NoError(t, transitions.Vacate(ctx, nil, audit.System, m, testutil.Date(2024, time.January, 1)))
	assert.ErrorIs(t, svc.DeletePosition(ctx, audit.System, p.ID), ErrPositionProtected)

	list, total, err := svc.ListPositions(ctx, repositories.PositionFilter{UnitIDs: []int64{env.unit.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	other, err := svc.CreatePosition(ctx, audit.System, models.PositionPayload{UnitID: env.unit.ID, PositionIndex: "01003", Name: "Писар"})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePosition(ctx, audit.System, other.ID))
	_, err = svc.GetPosition(ctx, other.ID)
	assert.ErrorIs(t, err, ErrPositionNotFound)
}
