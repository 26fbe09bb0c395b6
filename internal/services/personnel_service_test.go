package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/testutil"
)

func newPersonnel(env *transitionEnv) PersonnelService {
	recorder := audit.NewRecorder()
	return NewPersonnelService(env.db, recorder, NewTransitionService(env.db, recorder))
}

func strPtr(s string) *string { return &s }

func TestCreateMemberRecordsEnlistment(t *testing.T) {
	env := newTransitionEnv(t)
	svc := newPersonnel(env)
	ctx := context.Background()

	m, err := svc.CreateMember(ctx, audit.System, models.ServiceMemberCreatePayload{
		LastName:       "Franko",
		FirstName:      "Ivan",
		RankID:         env.sergeant.ID,
		DateOfBirth:    strPtr("27.08.1996"),
		TaxIDNumber:    strPtr(" 1234567890 "),
		EnlistmentDate: strPtr("2023-02-24"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnDuty, m.Status)
	assert.Equal(t, "1234567890", *m.TaxIDNumber)
	assert.Equal(t, "Сержант", m.Rank.Name)

	events := eventsOf(t, env.db, m.ID, models.EventEnlistment)
	require.Len(t, events, 1)
	assert.True(t, testutil.Date(2023, time.February, 24).Equal(events[0].EventDate))

	var created int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Where("object_type = ? AND action = ?", "servicemember", models.AuditCreate).Count(&created).Error)
	assert.Equal(t, int64(1), created)

	_, err = svc.CreateMember(ctx, audit.System, models.ServiceMemberCreatePayload{
		LastName: "Other", FirstName: "Person", RankID: env.sergeant.ID, TaxIDNumber: strPtr("1234567890"),
	})
	assert.ErrorIs(t, err, ErrTaxIDExists)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateMemberRejectsBadInput(t *testing.T) {
	env := newTransitionEnv(t)
	svc := newPersonnel(env)
	ctx := context.Background()

	_, err := svc.CreateMember(ctx, audit.System, models.ServiceMemberCreatePayload{LastName: "A", FirstName: "B", RankID: 999})
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = svc.CreateMember(ctx, audit.System, models.ServiceMemberCreatePayload{LastName: "A", FirstName: "B", RankID: env.sergeant.ID, TaxIDNumber: strPtr("12345")})
	assert.ErrorIs(t, err, ErrValidationInput)

	_, err = svc.CreateMember(ctx, audit.System, models.ServiceMemberCreatePayload{LastName: "A", FirstName: "B", RankID: env.sergeant.ID, Status: "RETIRED"})
	assert.ErrorIs(t, err, ErrValidationInput)

	var n int64
	require.NoError(t, env.db.Model(&models.ServiceMember{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateMemberWritesSensitiveRow(t *testing.T) {
	env := newTransitionEnv(t)
	svc := newPersonnel(env)
	ctx := context.Background()
	m := env.fx.Member("Стус", env.sergeant)

	_, err := svc.UpdateMember(ctx, audit.System, m.ID, models.ServiceMemberUpdatePayload{PassportNumber: strPtr("AA123456")})
	require.NoError(t, err)

	var rows []models.AuditLog
	require.NoError(t, env.db.Where("object_type = ? AND object_id = ?", "servicemember", m.ID).Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, models.SeverityInfo, rows[0].Severity)
	assert.Equal(t, models.SeverityCritical, rows[1].Severity)
	assert.Contains(t, rows[1].Notes, "passport_number")

	_, err = svc.UpdateMember(ctx, audit.System, m.ID, models.ServiceMemberUpdatePayload{Status: strPtr(models.StatusDismissed)})
	assert.ErrorIs(t, err, ErrValidationInput)

	_, err = svc.UpdateMember(ctx, audit.System, 404, models.ServiceMemberUpdatePayload{})
	assert.ErrorIs(t, err, ErrServiceMemberNotFound)
}

func TestGetMemberRecordsView(t *testing.T) {
	env := newTransitionEnv(t)
	svc := newPersonnel(env)
	m := env.fx.Member("Леся", env.sergeant)

	detail, err := svc.GetMember(context.Background(), audit.System, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, detail.ID)
	assert.GreaterOrEqual(t, detail.Age, 30)

	var views int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Where("action = ?", models.AuditView).Count(&views).Error)
	assert.Equal(t, int64(1), views)
}

func TestListMembersByName(t *testing.T) {
	env := newTransitionEnv(t)
	svc := newPersonnel(env)
	for _, name := range []string{"Їжакевич", "Іванченко", "Гнатюк", "Ґалаґан", "Євенко"} {
		env.fx.Member(name, env.sergeant)
	}

	page, total, err := svc.ListMembers(context.Background(), repositories.ServiceMemberFilter{
		ListParams: repositories.ListParams{SortBy: "name", Page: 1, Limit: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"Гнатюк", "Ґалаґан", "Євенко"}, []string{page[0].LastName, page[1].LastName, page[2].LastName})

	page, _, err = svc.ListMembers(context.Background(), repositories.ServiceMemberFilter{
		ListParams: repositories.ListParams{SortBy: "name", Page: 2, Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Їжакевич", page[1].LastName)
}

func TestPersonnelTransitionsAndDelete(t *testing.T) {
	env := newTransitionEnv(t)
	svc := newPersonnel(env)
	ctx := context.Background()
	p := env.fx.Position("Механік-водій", env.unit)
	m := env.fx.Member("Сковорода", env.sergeant)

	_, err := svc.AssignPosition(ctx, audit.System, m.ID, models.AssignPositionPayload{PositionID: p.ID, OrderReference: "Order-5", Date: "bad"})
	assert.ErrorIs(t, err, ErrValidationInput)

	got, err := svc.AssignPosition(ctx, audit.System, m.ID, models.AssignPositionPayload{PositionID: p.ID, OrderReference: "Order-5", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, *got.PositionID)

	_, err = svc.AddContract(ctx, audit.System, m.ID, models.ContractPayload{StartDate: "2024-01-01", EndDate: "2023-01-01"})
	assert.ErrorIs(t, err, ErrValidationInput)
	c, err := svc.AddContract(ctx, audit.System, m.ID, models.ContractPayload{StartDate: "2024-01-01", EndDate: "2027-01-01"})
	require.NoError(t, err)

	got, err = svc.Dismiss(ctx, audit.System, m.ID, models.DismissPayload{Reason: "за віком", OrderReference: "Order-6", Date: "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDismissed, got.Status)

	_, err = svc.Promote(ctx, audit.System, m.ID, models.PromotePayload{RankID: env.sergeant.ID, OrderReference: "x", Date: "2024-03-01"})
	assert.ErrorIs(t, err, ErrMemberNotActive)

	history, err := svc.History(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, history.Positions, 1)
	assert.Len(t, history.Events, 2)

	require.NoError(t, svc.DeleteMember(ctx, audit.System, m.ID))
	_, err = svc.ListContracts(ctx, m.ID)
	assert.ErrorIs(t, err, ErrServiceMemberNotFound)
	assert.ErrorIs(t, svc.DeleteContract(ctx, audit.System, c.ID), ErrContractNotFound)

	var deletes int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Where("object_type = ? AND action = ?", "servicemember", models.AuditDelete).Count(&deletes).Error)
	assert.Equal(t, int64(1), deletes)
}
