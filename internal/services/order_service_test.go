package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/testutil"
)

type orderEnv struct {
	*transitionEnv
	orders OrderService
}

func newOrderEnv(t *testing.T) *orderEnv {
	env := newTransitionEnv(t)
	recorder := audit.NewRecorder()
	return &orderEnv{
		transitionEnv: env,
		orders:        NewOrderService(env.db, recorder, NewTransitionService(env.db, recorder)),
	}
}

func (e *orderEnv) draft(t *testing.T, number string) *models.Order {
	t.Helper()
	o, err := e.orders.CreateOrder(context.Background(), audit.System, models.OrderCreatePayload{
		OrderNumber: number,
		OrderDate:   "2024-01-01",
	})
	require.NoError(t, err)
	return o
}

func (e *orderEnv) action(t *testing.T, orderID, memberID int64, actionType, details string) *models.OrderAction {
	t.Helper()
	a, err := e.orders.AddAction(context.Background(), audit.System, orderID, models.OrderActionPayload{
		ServiceMemberID: memberID,
		ActionType:      actionType,
		Details:         json.RawMessage(details),
	})
	require.NoError(t, err)
	return a
}

func (e *orderEnv) status(t *testing.T, orderID int64) (string, []models.OrderAction) {
	t.Helper()
	o, err := e.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	return o.Status, o.Actions
}

func TestCreateOrderValidation(t *testing.T) {
	env := newOrderEnv(t)
	_, err := env.orders.CreateOrder(context.Background(), audit.System, models.OrderCreatePayload{OrderNumber: "1", OrderDate: "не дата"})
	assert.ErrorIs(t, err, ErrValidationInput)

	o := env.draft(t, "12")
	assert.Equal(t, models.OrderStatusDraft, o.Status)
	assert.Equal(t, models.OrderTypePersonnel, o.OrderType)
	assert.Equal(t, "Наказ №12 від 2024-01-01", o.String())
}

func TestExecuteAppliesActions(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Командир відділення", env.unit)
	m := env.fx.Member("Шевченко", env.sergeant)
	senior := env.fx.Rank("Старший сержант", 11)

	o := env.draft(t, "5")
	env.action(t, o.ID, m.ID, models.ActionAppoint, fmt.Sprintf(`{"new_position_id": %d}`, p.ID))
	env.action(t, o.ID, m.ID, models.ActionPromote, fmt.Sprintf(`{"new_rank_id": "%d"}`, senior.ID))
	env.action(t, o.ID, m.ID, models.ActionAward, `{"award": "Медаль «За військову службу Україні»"}`)
	_, err := env.orders.Sign(ctx, audit.System, o.ID)
	require.NoError(t, err)

	applied, err := env.orders.Execute(ctx, audit.System, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	status, actions := env.status(t, o.ID)
	assert.Equal(t, models.OrderStatusExecuted, status)
	for _, a := range actions {
		assert.True(t, a.ExecutionStatus, a.ActionType)
	}

	var reloaded models.ServiceMember
	require.NoError(t, env.db.First(&reloaded, m.ID).Error)
	assert.Equal(t, p.ID, *reloaded.PositionID)
	assert.Equal(t, senior.ID, reloaded.RankID)

	appointments := eventsOf(t, env.db, m.ID, models.EventAppointment)
	require.Len(t, appointments, 1)
	assert.Equal(t, "Наказ №5 від 2024-01-01", appointments[0].OrderReference)
	assert.True(t, testutil.Date(2024, time.January, 1).Equal(appointments[0].EventDate))
	assert.Len(t, eventsOf(t, env.db, m.ID, models.EventAward), 1)
}

func TestExecuteDraftIsConflict(t *testing.T) {
	env := newOrderEnv(t)
	p := env.fx.Position("Стрілець", env.unit)
	m := env.fx.Member("Коваленко", env.sergeant)
	o := env.draft(t, "6")
	env.action(t, o.ID, m.ID, models.ActionAppoint, fmt.Sprintf(`{"new_position_id": %d}`, p.ID))

	_, err := env.orders.Execute(context.Background(), audit.System, o.ID)
	assert.ErrorIs(t, err, ErrConflict)
	var state *OrderStateError
	require.True(t, errors.As(err, &state))
	assert.Equal(t, models.OrderStatusDraft, state.Status)

	status, actions := env.status(t, o.ID)
	assert.Equal(t, models.OrderStatusDraft, status)
	assert.False(t, actions[0].ExecutionStatus)
	assert.Empty(t, eventsOf(t, env.db, m.ID, models.EventAppointment))
}

func TestExecuteRollsBackWholeOrder(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Кулеметник", env.unit)
	m := env.fx.Member("Бондаренко", env.sergeant)

	o := env.draft(t, "7")
	env.action(t, o.ID, m.ID, models.ActionAppoint, fmt.Sprintf(`{"new_position_id": %d}`, p.ID))
	second := env.action(t, o.ID, m.ID, models.ActionPromote, `{"new_rank_id": 9999}`)
	_, err := env.orders.Submit(ctx, audit.System, o.ID)
	require.NoError(t, err)

	_, err = env.orders.Execute(ctx, audit.System, o.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
	var execErr *OrderExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, second.ID, execErr.ActionID)

	status, actions := env.status(t, o.ID)
	assert.Equal(t, models.OrderStatusOnApproval, status)
	for _, a := range actions {
		assert.False(t, a.ExecutionStatus)
	}
	var reloaded models.ServiceMember
	require.NoError(t, env.db.First(&reloaded, m.ID).Error)
	assert.Nil(t, reloaded.PositionID)
	assert.Empty(t, eventsOf(t, env.db, m.ID, models.EventAppointment))
	assert.Empty(t, openTenures(t, env.db, m.ID))
}

func TestExecuteDismissOfInactiveMemberFails(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	m := env.fx.Member("Поліщук", env.sergeant)

	signed := func(number string, actions ...[2]string) *models.Order {
		o := env.draft(t, number)
		for _, a := range actions {
			env.action(t, o.ID, m.ID, a[0], a[1])
		}
		_, err := env.orders.Sign(ctx, audit.System, o.ID)
		require.NoError(t, err)
		return o
	}

	first := signed("21", [2]string{models.ActionDismiss, `{"reason": "за станом здоров'я"}`})
	_, err := env.orders.Execute(ctx, audit.System, first.ID)
	require.NoError(t, err)

	again := signed("22", [2]string{models.ActionDismiss, `{"reason": "повторно"}`})
	_, err = env.orders.Execute(ctx, audit.System, again.ID)
	assert.ErrorIs(t, err, ErrMemberNotActive)
	status, _ := env.status(t, again.ID)
	assert.Equal(t, models.OrderStatusSigned, status)
	assert.Len(t, eventsOf(t, env.db, m.ID, models.EventDismissal), 1)

	k := env.fx.Member("Марченко", env.sergeant)
	o := env.draft(t, "23")
	env.action(t, o.ID, k.ID, models.ActionExcludeKIA, `{"circumstances": "артобстріл"}`)
	env.action(t, o.ID, k.ID, models.ActionDismiss, `{"reason": "помилка"}`)
	_, err = env.orders.Sign(ctx, audit.System, o.ID)
	require.NoError(t, err)
	_, err = env.orders.Execute(ctx, audit.System, o.ID)
	assert.ErrorIs(t, err, ErrMemberNotActive)

	var reloaded models.ServiceMember
	require.NoError(t, env.db.First(&reloaded, k.ID).Error)
	assert.Equal(t, models.StatusOnDuty, reloaded.Status)
	assert.Empty(t, eventsOf(t, env.db, k.ID, models.EventDeath))
}

func TestExecuteMissingDetailIsValidation(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	m := env.fx.Member("Мельник", env.sergeant)
	o := env.draft(t, "8")

	_, err := env.orders.AddAction(ctx, audit.System, o.ID, models.OrderActionPayload{ServiceMemberID: m.ID, ActionType: models.ActionDismiss, Details: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrValidationInput)
	assert.ErrorIs(t, err, models.ErrMissingDetail)

	// rows written around the API still fail at execution time
	require.NoError(t, env.db.Create(&models.OrderAction{OrderID: o.ID, ServiceMemberID: m.ID, ActionType: models.ActionDismiss, Details: []byte(`{}`)}).Error)
	_, err = env.orders.Sign(ctx, audit.System, o.ID)
	require.NoError(t, err)
	_, err = env.orders.Execute(ctx, audit.System, o.ID)
	assert.ErrorIs(t, err, ErrValidationInput)
	status, _ := env.status(t, o.ID)
	assert.Equal(t, models.OrderStatusSigned, status)
}

func TestExecuteSkipsAppliedActions(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	p := env.fx.Position("Навідник", env.unit)
	m := env.fx.Member("Ткаченко", env.sergeant)
	senior := env.fx.Rank("Старший сержант", 11)

	o := env.draft(t, "9")
	first := env.action(t, o.ID, m.ID, models.ActionAppoint, fmt.Sprintf(`{"new_position_id": %d}`, p.ID))
	env.action(t, o.ID, m.ID, models.ActionPromote, fmt.Sprintf(`{"new_rank_id": %d}`, senior.ID))
	_, err := env.orders.Sign(ctx, audit.System, o.ID)
	require.NoError(t, err)

	// the appointment was already applied by an earlier partial run
	require.NoError(t, env.db.Model(&models.OrderAction{}).Where("id = ?", first.ID).Update("execution_status", true).Error)

	applied, err := env.orders.Execute(ctx, audit.System, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	var reloaded models.ServiceMember
	require.NoError(t, env.db.First(&reloaded, m.ID).Error)
	assert.Nil(t, reloaded.PositionID)
	assert.Equal(t, senior.ID, reloaded.RankID)
	assert.Empty(t, eventsOf(t, env.db, m.ID, models.EventAppointment))
	assert.Len(t, eventsOf(t, env.db, m.ID, models.EventPromotion), 1)
}

func TestExecuteTwiceIsConflict(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	o := env.draft(t, "10")
	_, err := env.orders.Sign(ctx, audit.System, o.ID)
	require.NoError(t, err)

	_, err = env.orders.Execute(ctx, audit.System, o.ID)
	require.NoError(t, err)
	_, err = env.orders.Execute(ctx, audit.System, o.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestExecuteManyIsolatesFailures(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	m := env.fx.Member("Савченко", env.sergeant)

	good := env.draft(t, "11")
	env.action(t, good.ID, m.ID, models.ActionReprimand, `{"reason": "запізнення"}`)
	_, err := env.orders.Sign(ctx, audit.System, good.ID)
	require.NoError(t, err)
	bad := env.draft(t, "12")

	results := env.orders.ExecuteMany(ctx, audit.System, []int64{bad.ID, good.ID, 404})
	require.Len(t, results, 3)
	assert.False(t, results[0].Executed)
	assert.NotEmpty(t, results[0].Error)
	assert.True(t, results[1].Executed)
	assert.Equal(t, 1, results[1].Applied)
	assert.False(t, results[2].Executed)

	status, _ := env.status(t, good.ID)
	assert.Equal(t, models.OrderStatusExecuted, status)
	assert.Len(t, eventsOf(t, env.db, m.ID, models.EventReprimand), 1)
}

func TestOrderStateMachine(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	m := env.fx.Member("Лисенко", env.sergeant)
	o := env.draft(t, "13")

	_, err := env.orders.Submit(ctx, audit.System, o.ID)
	require.NoError(t, err)
	_, err = env.orders.Submit(ctx, audit.System, o.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.orders.AddAction(ctx, audit.System, o.ID, models.OrderActionPayload{ServiceMemberID: m.ID, ActionType: models.ActionAward, Details: json.RawMessage(`{"award":"x"}`)})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.orders.Cancel(ctx, audit.System, o.ID)
	require.NoError(t, err)
	_, err = env.orders.Sign(ctx, audit.System, o.ID)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, env.orders.DeleteOrder(ctx, audit.System, o.ID))
	_, err = env.orders.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateAndRemoveAction(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	m := env.fx.Member("Руденко", env.sergeant)
	o := env.draft(t, "14")
	a := env.action(t, o.ID, m.ID, models.ActionAward, `{"award":"Грамота"}`)

	text := "Про нагородження"
	updated, err := env.orders.UpdateOrder(ctx, audit.System, o.ID, models.OrderUpdatePayload{OrderText: &text})
	require.NoError(t, err)
	assert.Equal(t, text, updated.OrderText)

	require.NoError(t, env.orders.RemoveAction(ctx, audit.System, o.ID, a.ID))
	assert.ErrorIs(t, env.orders.RemoveAction(ctx, audit.System, o.ID, a.ID), ErrOrderActionNotFound)

	_, err = env.orders.AddAction(ctx, audit.System, o.ID, models.OrderActionPayload{ServiceMemberID: 777, ActionType: models.ActionAward, Details: json.RawMessage(`{"award":"x"}`)})
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	orders, total, err := env.orders.ListOrders(ctx, repositories.OrderFilter{Status: models.OrderStatusDraft})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, orders, 1)
}
