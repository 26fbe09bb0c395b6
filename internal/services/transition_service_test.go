package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/testutil"
)

type transitionEnv struct {
	db       *gorm.DB
	fx       *testutil.Fixture
	svc      TransitionService
	unit     *models.Unit
	sergeant *models.Rank
}

func newTransitionEnv(t *testing.T) *transitionEnv {
	conn := testutil.NewDB(t)
	fx := testutil.NewFixture(t, conn)
	return &transitionEnv{
		db:       conn,
		fx:       fx,
		svc:      NewTransitionService(conn, audit.NewRecorder()),
		unit:     fx.Unit("1 механізований батальйон", nil),
		sergeant: fx.Rank("Сержант", 10),
	}
}

func openTenures(t *testing.T, db *gorm.DB, memberID int64) []models.PositionHistory {
	t.Helper()
	var rows []models.PositionHistory
	require.NoError(t, db.Where("service_member_id = ? AND end_date IS NULL", memberID).Find(&rows).Error)
	return rows
}

func eventsOf(t *testing.T, db *gorm.DB, memberID int64, eventType string) []models.ServiceHistoryEvent {
	t.Helper()
	var rows []models.ServiceHistoryEvent
	require.NoError(t, db.Where("service_member_id = ? AND event_type = ?", memberID, eventType).Order("id").Find(&rows).Error)
	return rows
}

func TestAssignThenTransfer(t *testing.T) {
	env := newTransitionEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Командир відділення", env.unit)
	q := env.fx.Position("Заступник командира взводу", env.unit)
	m := env.fx.Member("Шевченко", env.sergeant)

	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, m, p, "Order-5", testutil.Date(2024, time.January, 1), models.EventAppointment))

	require.NotNil(t, m.PositionID)
	assert.Equal(t, p.ID, *m.PositionID)
	open := openTenures(t, env.db, m.ID)
	require.Len(t, open, 1)
	assert.Equal(t, p.ID, open[0].PositionID)
	assert.True(t, testutil.Date(2024, time.January, 1).Equal(open[0].StartDate))
	assert.Equal(t, "Order-5", open[0].OrderReference)

	appointments := eventsOf(t, env.db, m.ID, models.EventAppointment)
	require.Len(t, appointments, 1)
	var details models.TransferDetails
	require.NoError(t, json.Unmarshal(appointments[0].Details, &details))
	assert.Equal(t, p.ID, details.ToPositionID)
	assert.Nil(t, details.FromPositionID)
	assert.Equal(t, models.NoPreviousPosition, details.FromPositionName)

	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, m, q, "Order-9", testutil.Date(2024, time.June, 1), models.EventTransfer))

	assert.Equal(t, q.ID, *m.PositionID)
	var first models.PositionHistory
	require.NoError(t, env.db.Where("service_member_id = ? AND position_id = ?", m.ID, p.ID).First(&first).Error)
	require.NotNil(t, first.EndDate)
	assert.True(t, testutil.Date(2024, time.June, 1).Equal(*first.EndDate))

	open = openTenures(t, env.db, m.ID)
	require.Len(t, open, 1)
	assert.Equal(t, q.ID, open[0].PositionID)

	transfers := eventsOf(t, env.db, m.ID, models.EventTransfer)
	require.Len(t, transfers, 1)
	require.NoError(t, json.Unmarshal(transfers[0].Details, &details))
	require.NotNil(t, details.FromPositionID)
	assert.Equal(t, p.ID, *details.FromPositionID)
	assert.Equal(t, q.ID, details.ToPositionID)
	assert.Equal(t, "Order-9", transfers[0].OrderReference)
}

func TestAssignOccupiedPositionConflicts(t *testing.T) {
	env := newTransitionEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Стрілець", env.unit)
	q := env.fx.Position("Кулеметник", env.unit)
	holder := env.fx.Member("Коваленко", env.sergeant)
	other := env.fx.Member("Бондаренко", env.sergeant)

	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, holder, p, "Order-1", testutil.Date(2024, time.January, 1), models.EventAppointment))
	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, other, q, "Order-2", testutil.Date(2024, time.January, 1), models.EventAppointment))

	err := env.svc.AssignPosition(ctx, nil, audit.System, other, p, "Order-3", testutil.Date(2024, time.February, 1), models.EventTransfer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	var occupied *PositionOccupiedError
	require.True(t, errors.As(err, &occupied))
	assert.Equal(t, holder.ID, occupied.OccupantID)

	var reloadedHolder, reloadedOther models.ServiceMember
	require.NoError(t, env.db.First(&reloadedHolder, holder.ID).Error)
	require.NotNil(t, reloadedHolder.PositionID)
	assert.Equal(t, p.ID, *reloadedHolder.PositionID)
	require.NoError(t, env.db.First(&reloadedOther, other.ID).Error)
	require.NotNil(t, reloadedOther.PositionID)
	assert.Equal(t, q.ID, *reloadedOther.PositionID)
	assert.Len(t, openTenures(t, env.db, other.ID), 1)
	assert.Empty(t, eventsOf(t, env.db, other.ID, models.EventTransfer))
}

func TestAssignSamePositionIsValidationError(t *testing.T) {
	env := newTransitionEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Навідник", env.unit)
	m := env.fx.Member("Мельник", env.sergeant)
	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, m, p, "Order-1", time.Time{}, models.EventAppointment))

	err := env.svc.AssignPosition(ctx, nil, audit.System, m, p, "Order-2", time.Time{}, models.EventTransfer)
	assert.ErrorIs(t, err, ErrValidationInput)
	assert.ErrorIs(t, err, ErrAlreadyInPosition)
}

func TestAssignMissingPosition(t *testing.T) {
	env := newTransitionEnv(t)
	m := env.fx.Member("Ткаченко", env.sergeant)

	err := env.svc.AssignPosition(context.Background(), nil, audit.System, m, &models.Position{ID: 999}, "Order-1", time.Time{}, models.EventAppointment)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
	assert.Nil(t, m.PositionID)
}

func TestAssignWritesAuditRow(t *testing.T) {
	env := newTransitionEnv(t)
	p := env.fx.Position("Водій", env.unit)
	m := env.fx.Member("Кравченко", env.sergeant)
	uid := int64(42)

	require.NoError(t, env.svc.AssignPosition(context.Background(), nil, audit.Context{UserID: &uid}, m, p, "Order-1", time.Time{}, models.EventAppointment))

	var rows []models.AuditLog
	require.NoError(t, env.db.Where("object_type = ? AND object_id = ?", "servicemember", m.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.AuditUpdate, rows[0].Action)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, uid, *rows[0].UserID)

	var changes map[string]map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Changes, &changes))
	assert.Nil(t, changes["old"]["position"])
	assert.Equal(t, p.String(), changes["new"]["position"])
}

func TestPromote(t *testing.T) {
	env := newTransitionEnv(t)
	m := env.fx.Member("Олійник", env.sergeant)
	senior := env.fx.Rank("Старший сержант", 11)

	require.NoError(t, env.svc.Promote(context.Background(), nil, audit.System, m, senior, "Order-7", testutil.Date(2024, time.March, 1)))
	assert.Equal(t, senior.ID, m.RankID)

	events := eventsOf(t, env.db, m.ID, models.EventPromotion)
	require.Len(t, events, 1)
	var details models.PromotionDetails
	require.NoError(t, json.Unmarshal(events[0].Details, &details))
	assert.Equal(t, "Сержант", details.PreviousRank)
	assert.Equal(t, "Старший сержант", details.NewRank)
}

func TestPromoteMissingRank(t *testing.T) {
	env := newTransitionEnv(t)
	m := env.fx.Member("Поліщук", env.sergeant)

	err := env.svc.Promote(context.Background(), nil, audit.System, m, &models.Rank{ID: 404}, "Order-7", time.Time{})
	var ref *ReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, "rank", ref.Kind)
	assert.Empty(t, eventsOf(t, env.db, m.ID, models.EventPromotion))
}

func TestDismissVacatesAndClosesTenure(t *testing.T) {
	env := newTransitionEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Розвідник", env.unit)
	m := env.fx.Member("Савченко", env.sergeant)
	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, m, p, "Order-1", testutil.Date(2024, time.January, 1), models.EventAppointment))

	assert.ErrorIs(t, env.svc.Dismiss(ctx, nil, audit.System, m, "  ", "Order-2", time.Time{}), ErrReasonRequired)

	require.NoError(t, env.svc.Dismiss(ctx, nil, audit.System, m, "за станом здоров'я", "Order-2", testutil.Date(2024, time.May, 5)))
	assert.Equal(t, models.StatusDismissed, m.Status)
	assert.Nil(t, m.PositionID)
	assert.Empty(t, openTenures(t, env.db, m.ID))

	events := eventsOf(t, env.db, m.ID, models.EventDismissal)
	require.Len(t, events, 1)
	var details models.DismissalDetails
	require.NoError(t, json.Unmarshal(events[0].Details, &details))
	assert.Equal(t, "за станом здоров'я", details.Reason)

	// the position is vacant again
	other := env.fx.Member("Руденко", env.sergeant)
	assert.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, other, p, "Order-3", time.Time{}, models.EventAppointment))
}

func TestExcludeKilled(t *testing.T) {
	env := newTransitionEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Санітар", env.unit)
	m := env.fx.Member("Лисенко", env.sergeant)
	require.NoError(t, env.svc.AssignPosition(ctx, nil, audit.System, m, p, "Order-1", time.Time{}, models.EventAppointment))

	dod := testutil.Date(2024, time.August, 2)
	require.NoError(t, env.svc.ExcludeKilled(ctx, nil, audit.System, m, models.ExcludeKIADetails{DateOfDeath: &dod, Circumstances: "артобстріл"}, "Order-4", dod))
	assert.Equal(t, models.StatusKIA, m.Status)
	assert.Nil(t, m.PositionID)
	assert.Empty(t, openTenures(t, env.db, m.ID))

	events := eventsOf(t, env.db, m.ID, models.EventDeath)
	require.Len(t, events, 1)
	var details map[string]string
	require.NoError(t, json.Unmarshal(events[0].Details, &details))
	assert.Equal(t, "2024-08-02", details["date_of_death"])
}

func TestTransitionsRejectInactiveMembers(t *testing.T) {
	env := newTransitionEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Водій", env.unit)
	senior := env.fx.Rank("Старший сержант", 11)

	dismissed := env.fx.Member("Ткаченко", env.sergeant)
	require.NoError(t, env.svc.Dismiss(ctx, nil, audit.System, dismissed, "за віком", "Order-1", time.Time{}))

	assert.ErrorIs(t, env.svc.Dismiss(ctx, nil, audit.System, dismissed, "повторно", "Order-2", time.Time{}), ErrMemberNotActive)
	assert.ErrorIs(t, env.svc.ExcludeKilled(ctx, nil, audit.System, dismissed, models.ExcludeKIADetails{}, "Order-2", time.Time{}), ErrMemberNotActive)
	assert.ErrorIs(t, env.svc.Promote(ctx, nil, audit.System, dismissed, senior, "Order-2", time.Time{}), ErrMemberNotActive)
	err := env.svc.AssignPosition(ctx, nil, audit.System, dismissed, p, "Order-2", time.Time{}, models.EventAppointment)
	assert.ErrorIs(t, err, ErrMemberNotActive)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, eventsOf(t, env.db, dismissed.ID, models.EventDismissal), 1)
	assert.Empty(t, eventsOf(t, env.db, dismissed.ID, models.EventDeath))

	killed := env.fx.Member("Кравець", env.sergeant)
	require.NoError(t, env.svc.ExcludeKilled(ctx, nil, audit.System, killed, models.ExcludeKIADetails{}, "Order-3", time.Time{}))
	assert.ErrorIs(t, env.svc.Dismiss(ctx, nil, audit.System, killed, "помилка", "Order-4", time.Time{}), ErrMemberNotActive)

	var reloaded models.ServiceMember
	require.NoError(t, env.db.First(&reloaded, killed.ID).Error)
	assert.Equal(t, models.StatusKIA, reloaded.Status)
	assert.Empty(t, eventsOf(t, env.db, killed.ID, models.EventDismissal))
}

func TestAssignRefreshesCallerMember(t *testing.T) {
	env := newTransitionEnv(t)
	p := env.fx.Position("Зв'язківець", env.unit)
	m := env.fx.Member("Олійник", env.sergeant)
	stale := *m

	require.NoError(t, env.svc.AssignPosition(context.Background(), nil, audit.System, &stale, p, "Order-1", time.Time{}, models.EventAppointment))
	require.NotNil(t, stale.PositionID)
	assert.Equal(t, p.ID, *stale.PositionID)
	require.NotNil(t, stale.Position)
	assert.Equal(t, p.ID, stale.Position.ID)
}

func TestTransitionJoinsCallerTransaction(t *testing.T) {
	env := newTransitionEnv(t)
	p := env.fx.Position("Оператор", env.unit)
	m := env.fx.Member("Гнатюк", env.sergeant)
	rollback := errors.New("rollback")

	err := env.db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, env.svc.AssignPosition(context.Background(), tx, audit.System, m, p, "Order-1", time.Time{}, models.EventAppointment))
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	var reloaded models.ServiceMember
	require.NoError(t, env.db.First(&reloaded, m.ID).Error)
	assert.Nil(t, reloaded.PositionID)
	assert.Empty(t, openTenures(t, env.db, m.ID))
	assert.Empty(t, eventsOf(t, env.db, m.ID, models.EventAppointment))
}
