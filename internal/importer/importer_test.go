package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/internal/testutil"
)

const header = "Прізвище,Ім'я,По батькові,Дата народження,Місце народження,РНОКПП,Паспорт,Звання,Індекс посади\n"

type importEnv struct {
	db       *gorm.DB
	importer *Importer
	soldier  *models.Rank
	sergeant *models.Rank
	position *models.Position
}

func newImportEnv(t *testing.T) *importEnv {
	conn := testutil.NewDB(t)
	fx := testutil.NewFixture(t, conn)
	recorder := audit.NewRecorder()
	im := New(conn, recorder, services.NewTransitionService(conn, recorder))
	im.now = func() time.Time { return testutil.Date(2024, time.June, 1) }
	return &importEnv{
		db:       conn,
		importer: im,
		soldier:  fx.Rank("Солдат", 1),
		sergeant: fx.Rank("Сержант", 5),
		position: fx.Position("Стрілець", fx.Unit("1 рота", nil)),
	}
}

func (e *importEnv) run(t *testing.T, csv string, opts Options) *Result {
	t.Helper()
	records, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	res, err := e.importer.Import(context.Background(), audit.System, records, opts)
	require.NoError(t, err)
	return res
}

func (e *importEnv) count(t *testing.T, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestParseRows(t *testing.T) {
	t.Run("missing columns", func(t *testing.T) {
		_, err := ParseRows([][]string{{"Прізвище", "Ім'я"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ColTaxID)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseRows(nil)
		assert.ErrorIs(t, err, ErrEmptySheet)
	})

	t.Run("apostrophe variants and blank rows", func(t *testing.T) {
		records, err := ParseRows([][]string{
			{"\ufeffПрізвище", "Ім’я", "Дата народження", "РНОКПП", "Звання"},
			{" Шевченко ", "Олександр", "15.03.1990", "3012345678", "Солдат"},
			{"", "", "", "", ""},
			{"Коваленко", "Петро"},
		})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 2, records[0].Line)
		assert.Equal(t, "Шевченко", records[0].Get(ColLastName))
		assert.Equal(t, "Олександр", records[0].Get(ColFirstName))
		assert.Equal(t, 4, records[1].Line)
		assert.Equal(t, "", records[1].Get(ColTaxID))
	})
}

func TestImportCreatesSkipsAndCountsErrors(t *testing.T) {
	env := newImportEnv(t)
	res := env.run(t, header+
		"Шевченко,Олександр,Іванович,15.03.1990,м. Київ,3012345678,АА123456,Солдат,"+env.position.PositionIndex+"\n"+
		"Коваленко,Петро,Васильович,22.07.1985,м. Харків,2987654321,ВВ654321,Майор,\n"+
		"Шевченко,Олександр,Іванович,15.03.1990,м. Київ,3012345678,АА123456,Солдат,\n"+
		"Бондар,Ігор,,31.02.1990,,1234567890,,Солдат,\n"+
		"Мельник,Іван,,01.01.1995,,123,,Солдат,П-404\n",
		Options{})

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Errors)
	require.Len(t, res.Failures, 3)
	assert.Equal(t, 3, res.Failures[0].Line)
	assert.Contains(t, res.Failures[0].Message, "Майор")
	assert.Equal(t, 5, res.Failures[1].Line)
	assert.Equal(t, 6, res.Failures[2].Line)

	var m models.ServiceMember
	require.NoError(t, env.db.Where("tax_id_number = ?", "3012345678").First(&m).Error)
	assert.Equal(t, models.StatusOnDuty, m.Status)
	require.NotNil(t, m.PositionID)
	assert.Equal(t, env.position.ID, *m.PositionID)

	assert.EqualValues(t, 1, env.count(t, &models.ServiceHistoryEvent{}, "service_member_id = ? AND event_type = ?", m.ID, models.EventEnlistment))
	assert.EqualValues(t, 1, env.count(t, &models.ServiceHistoryEvent{}, "service_member_id = ? AND event_type = ?", m.ID, models.EventAppointment))
	assert.EqualValues(t, 1, env.count(t, &models.PositionHistory{}, "service_member_id = ? AND order_reference = ?", m.ID, OrderReference))
	assert.NotZero(t, env.count(t, &models.AuditLog{}, "action = ? AND object_type = ?", models.AuditCreate, "servicemember"))
}

func TestImportUpdatePromotesAndWarns(t *testing.T) {
	env := newImportEnv(t)
	env.run(t, header+"Шевченко,Олександр,,15.03.1990,,3012345678,,Солдат,\n", Options{})

	other := testutil.NewFixture(t, env.db).Member("Зайнятий", env.soldier)
	require.NoError(t, env.db.Model(other).Update("position_id", env.position.ID).Error)

	res := env.run(t, header+"Шевченко-Коваль,Олександр,,15.03.1990,,3012345678,,Сержант,"+env.position.PositionIndex+"\n", Options{Update: true})
	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "is held by member")

	var m models.ServiceMember
	require.NoError(t, env.db.Where("tax_id_number = ?", "3012345678").First(&m).Error)
	assert.Equal(t, "Шевченко-Коваль", m.LastName)
	assert.Equal(t, env.sergeant.ID, m.RankID)
	assert.Nil(t, m.PositionID)
	assert.EqualValues(t, 1, env.count(t, &models.ServiceHistoryEvent{}, "service_member_id = ? AND event_type = ?", m.ID, models.EventPromotion))
}

func TestImportDryRunRollsBack(t *testing.T) {
	env := newImportEnv(t)
	res := env.run(t, header+"Шевченко,Олександр,,15.03.1990,,3012345678,,Солдат,\n", Options{DryRun: true})

	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Created)
	assert.Zero(t, env.count(t, &models.ServiceMember{}))
	assert.Zero(t, env.count(t, &models.AuditLog{}))
}

func TestImportFileXLSX(t *testing.T) {
	env := newImportEnv(t)

	f := excelize.NewFile()
	rows := [][]any{
		{ColLastName, ColFirstName, ColDateOfBirth, ColTaxID, ColRank},
		{"Шевченко", "Олександр", "15.03.1990", "3012345678", "Солдат"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	path := filepath.Join(t.TempDir(), "personnel.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	res, err := env.importer.ImportFile(context.Background(), audit.System, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	txt := filepath.Join(t.TempDir(), "personnel.txt")
	require.NoError(t, os.WriteFile(txt, []byte(header), 0o600))
	_, err = env.importer.ImportFile(context.Background(), audit.System, txt, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
