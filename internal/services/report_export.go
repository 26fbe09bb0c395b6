package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// reportSheet is the tabular form of a report written to XLSX.
type reportSheet struct {
	Title   string
	Summary [][2]any
	Header  []string
	Rows    [][]any
}

// sheetName is the worksheet name; excelize limits it to 31 characters.
const sheetName = "Звіт"

func (r *reportSheet) render(at time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}

	if err := set(1, 1, "Звіт: "+r.Title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
		return nil, err
	}
	if err := set(1, 2, "Дата: "+at.Format("02.01.2006 15:04")); err != nil {
		return nil, err
	}

	row := 4
	if len(r.Summary) > 0 {
		if err := set(1, row, "Загальна інформація"); err != nil {
			return nil, err
		}
		row++
		for _, kv := range r.Summary {
			if err := set(1, row, kv[0]); err != nil {
				return nil, err
			}
			if err := set(2, row, kv[1]); err != nil {
				return nil, err
			}
			row++
		}
		row++
	}

	if len(r.Header) > 0 {
		for i, h := range r.Header {
			if err := set(i+1, row, h); err != nil {
				return nil, err
			}
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(r.Header), row)
		if err := f.SetCellStyle(sheetName, first, last, bold); err != nil {
			return nil, err
		}
		row++
		for _, values := range r.Rows {
			for i, v := range values {
				if err := set(i+1, row, v); err != nil {
					return nil, err
				}
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func dateCell(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

func (r *UnitStaffingReport) sheet() *reportSheet {
	s := &reportSheet{
		Title: "Укомплектованість: " + r.UnitName,
		Summary: [][2]any{
			{"Всього посад", r.Summary.TotalPositions},
			{"Укомплектовано", r.Summary.FilledPositions},
			{"Вакантно", r.Summary.VacantPositions},
			{"Відсоток укомплектованості", r.Summary.StaffingPercentage},
		},
		Header: []string{"Індекс посади", "Посада", "Підрозділ", "ВОС"},
	}
	for _, p := range r.VacantPositions {
		specialty := ""
		if p.Specialty != nil {
			specialty = p.Specialty.Code
		}
		s.Rows = append(s.Rows, []any{p.PositionIndex, p.Name, p.Unit.Name, specialty})
	}
	return s
}

func brigadeSheet(rows []BattalionStaffing) *reportSheet {
	s := &reportSheet{
		Title:  "Зведений звіт по батальйонах",
		Header: []string{"Батальйон", "Всього посад", "Укомплектовано", "Вакантно", "%"},
	}
	for _, b := range rows {
		s.Rows = append(s.Rows, []any{b.Battalion, b.TotalPositions, b.FilledPositions, b.VacantPositions, b.Percentage})
	}
	return s
}

func (r *PersonnelStatistics) sheet() *reportSheet {
	s := &reportSheet{
		Title: "Статистика особового складу",
		Summary: [][2]any{
			{"Всього військовослужбовців", r.TotalServicemen},
			{"Контракти, що закінчуються (90 днів)", r.ContractsEndingSoon},
			{"Середній вік", r.AverageAge},
		},
		Header: []string{"Показник", "Значення", "Кількість"},
	}
	for _, rc := range r.ByRank {
		s.Rows = append(s.Rows, []any{"Звання", rc.Rank, rc.Count})
	}
	for _, ag := range r.ByAge {
		s.Rows = append(s.Rows, []any{"Вік", ag.Label, ag.Count})
	}
	return s
}

func (r *ServiceHistoryReport) sheet() *reportSheet {
	s := &reportSheet{
		Title:   "Історія служби за період " + r.Period,
		Summary: [][2]any{{"Всього подій", r.TotalEvents}},
		Header:  []string{"Дата", "Подія", "Військовослужбовець", "Наказ"},
	}
	for _, t := range r.ByType {
		s.Summary = append(s.Summary, [2]any{t.EventType, t.Count})
	}
	for _, e := range r.Events {
		member := ""
		if e.ServiceMember != nil {
			member = e.ServiceMember.String()
		}
		date := e.EventDate
		s.Rows = append(s.Rows, []any{dateCell(&date), e.EventType, member, e.OrderReference})
	}
	return s
}

func (r *ContractsStatus) sheet() *reportSheet {
	s := &reportSheet{
		Title: "Статус контрактів",
		Summary: [][2]any{
			{"Закінчуються протягом 30 днів", r.Ending30Days.Count},
			{"Закінчуються через 31-90 днів", r.Ending90Days.Count},
			{"Прострочені", r.Expired.Count},
		},
		Header: []string{"Група", "Військовослужбовець", "Початок", "Кінець"},
	}
	add := func(label string, list []contractRow) {
		for _, c := range list {
			s.Rows = append(s.Rows, []any{label, c.member, c.start, c.end})
		}
	}
	add("30 днів", contractRows(r.Ending30Days))
	add("90 днів", contractRows(r.Ending90Days))
	add("Прострочені", contractRows(r.Expired))
	return s
}

type contractRow struct {
	member, start, end string
}

func contractRows(g ContractGroup) []contractRow {
	rows := make([]contractRow, 0, len(g.List))
	for _, c := range g.List {
		member := ""
		if c.ServiceMember != nil {
			member = c.ServiceMember.String()
		}
		start, end := c.StartDate, c.EndDate
		rows = append(rows, contractRow{member: member, start: dateCell(&start), end: dateCell(&end)})
	}
	return rows
}

func forecastSheet(months []ForecastMonth) *reportSheet {
	s := &reportSheet{
		Title:  "Прогноз закінчення контрактів",
		Header: []string{"Місяць", "Кількість"},
	}
	for _, m := range months {
		s.Rows = append(s.Rows, []any{m.Month, m.Count})
	}
	return s
}
