package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/testutil"
)

func TestListParams_Normalize(t *testing.T) {
	p := ListParams{Page: 0, Limit: 1000, SortOrder: "ASC"}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 200, p.Limit)
	assert.Equal(t, "asc", p.SortOrder)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, Limit: 10, SortOrder: "sideways"}.Normalize()
	assert.Equal(t, "desc", p.SortOrder)
	assert.Equal(t, 20, p.Offset())
}

func TestIsUniqueViolation(t *testing.T) {
	sqliteErr := errors.New("UNIQUE constraint failed: ranks.name")
	pgErr := errors.New(`ERROR: duplicate key value violates unique constraint "idx_ranks_name" (SQLSTATE 23505)`)

	assert.True(t, isUniqueViolation(sqliteErr, "ranks.name"))
	assert.False(t, isUniqueViolation(sqliteErr, "users.username"))
	assert.True(t, isUniqueViolation(pgErr, ""))
	assert.False(t, isUniqueViolation(errors.New("disk full"), ""))
	assert.False(t, isUniqueViolation(nil, ""))
}

func TestPositionHistory_OpenAndClose(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	fx := testutil.NewFixture(t, db)
	unit := fx.Unit("1 рота", nil)
	p := fx.Position("Стрілець", unit)
	m := fx.Member("Коваль", fx.Rank("Солдат", 1))
	repo := NewGormPositionHistoryRepository(db)

	_, err := repo.GetOpen(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNoOpenTenure)

	row := &models.PositionHistory{ServiceMemberID: m.ID, PositionID: p.ID, StartDate: testutil.Date(2024, time.January, 1), OrderReference: "Order-5"}
	require.NoError(t, repo.Create(ctx, row))

	open, err := repo.GetOpen(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, row.ID, open.ID)

	require.NoError(t, repo.Close(ctx, row.ID, testutil.Date(2024, time.June, 1)))
	assert.ErrorIs(t, repo.Close(ctx, row.ID, testutil.Date(2024, time.July, 1)), ErrNoOpenTenure)

	n, err := repo.CountOpen(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	exists, err := repo.ExistsForPosition(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestServiceMemberRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	fx := testutil.NewFixture(t, db)
	soldier := fx.Rank("Солдат", 1)
	sergeant := fx.Rank("Сержант", 5)
	root := fx.Unit("1 батальйон", nil)
	company := fx.Unit("1 рота", root)
	other := fx.Unit("2 батальйон", nil)

	a := fx.Member("Андрієнко", soldier)
	b := fx.Member("Бондар", sergeant)
	fx.Member("Гнатюк", soldier)

	pa := fx.Position("Стрілець", company)
	pb := fx.Position("Командир відділення", other)
	require.NoError(t, db.Model(&models.ServiceMember{}).Where("id = ?", a.ID).Update("position_id", pa.ID).Error)
	require.NoError(t, db.Model(&models.ServiceMember{}).Where("id = ?", b.ID).Update("position_id", pb.ID).Error)

	repo := NewGormServiceMemberRepository(db)

	list, total, err := repo.List(ctx, ServiceMemberFilter{RankID: soldier.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, ServiceMemberFilter{UnitIDs: []int64{root.ID, company.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
	require.NotNil(t, list[0].Position)
	assert.Equal(t, "Стрілець (1 рота)", list[0].Position.String())

	list, _, err = repo.List(ctx, ServiceMemberFilter{ListParams: ListParams{Search: "Бонд"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	occupant, err := repo.GetByPositionID(ctx, pb.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, occupant.ID)
	assert.Equal(t, "Сержант", occupant.Rank.Name)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPositionRepository_VacantOnly(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	fx := testutil.NewFixture(t, db)
	unit := fx.Unit("1 рота", nil)
	held := fx.Position("Стрілець", unit)
	vacant := fx.Position("Кулеметник", unit)
	m := fx.Member("Коваль", fx.Rank("Солдат", 1))
	require.NoError(t, db.Model(&models.ServiceMember{}).Where("id = ?", m.ID).Update("position_id", held.ID).Error)

	list, err := NewGormPositionRepository(db).FindAll(ctx, PositionFilter{VacantOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vacant.ID, list[0].ID)
	assert.Nil(t, list[0].Occupant)
}

func TestReferenceRepository_DuplicateRank(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormReferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateRank(ctx, &models.Rank{Name: "Капітан", SortOrder: 10}))
	assert.ErrorIs(t, repo.CreateRank(ctx, &models.Rank{Name: "Капітан", SortOrder: 11}), ErrRankNameExists)
}
