package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
)

// Report kinds accepted by Export.
const (
	ReportStaffing       = "staffing"
	ReportBrigade        = "brigade"
	ReportPersonnel      = "personnel"
	ReportServiceHistory = "service-history"
	ReportContracts      = "contracts"
	ReportForecast       = "forecast"
)

// battalionMarker selects the units summarised by the brigade report.
const battalionMarker = "батальйон"

// StaffingSummary holds position totals.
type StaffingSummary struct {
	TotalPositions     int     `json:"totalPositions"`
	FilledPositions    int     `json:"filledPositions"`
	VacantPositions    int     `json:"vacantPositions"`
	StaffingPercentage float64 `json:"staffingPercentage"`
}

// StaffingGroup counts positions sharing a category or specialty.
type StaffingGroup struct {
	Key    string `json:"key"`
	Name   string `json:"name,omitempty"`
	Total  int    `json:"total"`
	Filled int    `json:"filled"`
}

// UnitStaffingReport describes staffing of a unit and its subordinate units.
type UnitStaffingReport struct {
	UnitID          int64             `json:"unitId"`
	UnitName        string            `json:"unitName"`
	Date            time.Time         `json:"date"`
	Summary         StaffingSummary   `json:"summary"`
	ByCategory      []StaffingGroup   `json:"byCategory"`
	BySpecialty     []StaffingGroup   `json:"bySpecialty"`
	VacantPositions []models.Position `json:"vacantPositions"`
}

// BattalionStaffing is one row of the brigade summary.
type BattalionStaffing struct {
	Battalion       string  `json:"battalion"`
	TotalPositions  int     `json:"totalPositions"`
	FilledPositions int     `json:"filledPositions"`
	VacantPositions int     `json:"vacantPositions"`
	Percentage      float64 `json:"percentage"`
}

// AgeGroup is a bucket of the personnel age distribution.
type AgeGroup struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PersonnelStatistics summarises the whole personnel.
type PersonnelStatistics struct {
	TotalServicemen     int64                    `json:"totalServicemen"`
	ByRank              []repositories.RankCount `json:"byRank"`
	ByAge               []AgeGroup               `json:"byAge"`
	ContractsEndingSoon int                      `json:"contractsEndingSoon"`
	AverageAge          float64                  `json:"averageAge"`
}

// EventTypeCount counts service history events of one type.
type EventTypeCount struct {
	EventType string `json:"eventType"`
	Count     int    `json:"count"`
}

// ServiceHistoryReport lists service history events in a period.
type ServiceHistoryReport struct {
	Period      string                       `json:"period"`
	From        time.Time                    `json:"from"`
	To          time.Time                    `json:"to"`
	TotalEvents int                          `json:"totalEvents"`
	ByType      []EventTypeCount             `json:"byType"`
	Events      []models.ServiceHistoryEvent `json:"events"`
}

// ContractGroup is a counted list of contracts.
type ContractGroup struct {
	Count int64             `json:"count"`
	List  []models.Contract `json:"list"`
}

// ContractsStatus groups contracts by how soon they end.
type ContractsStatus struct {
	Date         time.Time     `json:"date"`
	Ending30Days ContractGroup `json:"ending30Days"`
	Ending90Days ContractGroup `json:"ending90Days"`
	Expired      ContractGroup `json:"expired"`
}

// ForecastMonth counts contracts ending in one 30-day window.
type ForecastMonth struct {
	Month string    `json:"month"`
	From  time.Time `json:"from"`
	Count int       `json:"count"`
}

// ExportParams selects the report rendered by Export.
type ExportParams struct {
	UnitID int64
	From   time.Time
	To     time.Time
}

// ReportingService builds staffing, personnel and contract reports.
type ReportingService interface {
	UnitStaffing(ctx context.Context, unitID int64) (*UnitStaffingReport, error)
	BrigadeSummary(ctx context.Context) ([]BattalionStaffing, error)
	PersonnelStatistics(ctx context.Context) (*PersonnelStatistics, error)
	ServiceHistory(ctx context.Context, from, to time.Time) (*ServiceHistoryReport, error)
	ContractsStatus(ctx context.Context) (*ContractsStatus, error)
	ContractForecast(ctx context.Context) ([]ForecastMonth, error)
	// Export renders a report as an XLSX workbook and records an EXPORT audit row.
	Export(ctx context.Context, actx audit.Context, kind string, params ExportParams) ([]byte, error)
}

type reportingService struct {
	db       *gorm.DB
	recorder *audit.Recorder
	now      func() time.Time
}

// NewReportingService creates a ReportingService.
func NewReportingService(db *gorm.DB, recorder *audit.Recorder) ReportingService {
	return &reportingService{db: db, recorder: recorder, now: time.Now}
}

func (s *reportingService) today() time.Time {
	return dateOnly(s.now())
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

func (s *reportingService) positionsIn(ctx context.Context, unitIDs []int64) ([]models.Position, error) {
	return repositories.NewGormPositionRepository(s.db).FindAll(ctx, repositories.PositionFilter{UnitIDs: unitIDs})
}

func (s *reportingService) UnitStaffing(ctx context.Context, unitID int64) (*UnitStaffingReport, error) {
	unit, err := repositories.NewGormReferenceRepository(s.db).GetUnit(ctx, unitID)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	} else if err != nil {
		return nil, err
	}
	units, err := repositories.NewGormReferenceRepository(s.db).ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := s.positionsIn(ctx, models.DescendantIDs(units, unit.ID))
	if err != nil {
		return nil, err
	}

	report := &UnitStaffingReport{
		UnitID:          unit.ID,
		UnitName:        unit.Name,
		Date:            s.now(),
		VacantPositions: []models.Position{},
	}
	categories := map[string]*StaffingGroup{}
	specialties := map[string]*StaffingGroup{}
	for _, p := range positions {
		filled := p.Occupant != nil
		report.Summary.TotalPositions++
		if filled {
			report.Summary.FilledPositions++
		} else {
			report.VacantPositions = append(report.VacantPositions, p)
		}

		group(categories, p.Category, "", filled)
		code, name := "", ""
		if p.Specialty != nil {
			code, name = p.Specialty.Code, p.Specialty.Name
		}
		group(specialties, code, name, filled)
	}
	report.Summary.VacantPositions = report.Summary.TotalPositions - report.Summary.FilledPositions
	report.Summary.StaffingPercentage = percentage(report.Summary.FilledPositions, report.Summary.TotalPositions)
	report.ByCategory = sortedGroups(categories)
	report.BySpecialty = sortedGroups(specialties)
	return report, nil
}

func group(groups map[string]*StaffingGroup, key, name string, filled bool) {
	g, ok := groups[key]
	if !ok {
		g = &StaffingGroup{Key: key, Name: name}
		groups[key] = g
	}
	g.Total++
	if filled {
		g.Filled++
	}
}

func sortedGroups(groups map[string]*StaffingGroup) []StaffingGroup {
	out := make([]StaffingGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *reportingService) BrigadeSummary(ctx context.Context) ([]BattalionStaffing, error) {
	units, err := repositories.NewGormReferenceRepository(s.db).ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	summary := []BattalionStaffing{}
	for _, u := range units {
		if !strings.Contains(strings.ToLower(u.Name), battalionMarker) {
			continue
		}
		positions, err := s.positionsIn(ctx, models.DescendantIDs(units, u.ID))
		if err != nil {
			return nil, err
		}
		row := BattalionStaffing{Battalion: u.Name, TotalPositions: len(positions)}
		for _, p := range positions {
			if p.Occupant != nil {
				row.FilledPositions++
			}
		}
		row.VacantPositions = row.TotalPositions - row.FilledPositions
		row.Percentage = percentage(row.FilledPositions, row.TotalPositions)
		summary = append(summary, row)
	}
	sort.SliceStable(summary, func(i, j int) bool { return summary[i].Percentage < summary[j].Percentage })
	return summary, nil
}

// ageBuckets are the upper bounds of the age groups; the last one is open.
var ageBuckets = []struct {
	label string
	max   int
}{
	{"18-25", 25},
	{"26-30", 30},
	{"31-35", 35},
	{"36-40", 40},
	{"41-45", 45},
	{"46+", math.MaxInt},
}

func (s *reportingService) PersonnelStatistics(ctx context.Context) (*PersonnelStatistics, error) {
	members := repositories.NewGormServiceMemberRepository(s.db)
	all, err := members.FindAll(ctx, repositories.ServiceMemberFilter{})
	if err != nil {
		return nil, err
	}
	byRank, err := members.RankCounts(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	ending, err := repositories.NewGormContractRepository(s.db).EndingBetween(ctx, today, today.AddDate(0, 0, 90))
	if err != nil {
		return nil, err
	}

	stats := &PersonnelStatistics{
		TotalServicemen:     int64(len(all)),
		ByRank:              byRank,
		ContractsEndingSoon: len(ending),
	}
	counts := make([]int, len(ageBuckets))
	known, sum := 0, 0
	for _, m := range all {
		age := m.Age(today)
		if age < 0 {
			continue
		}
		known++
		sum += age
		for i, b := range ageBuckets {
			if age <= b.max {
				counts[i]++
				break
			}
		}
	}
	for i, b := range ageBuckets {
		stats.ByAge = append(stats.ByAge, AgeGroup{Label: b.label, Count: counts[i]})
	}
	if known > 0 {
		stats.AverageAge = math.Round(float64(sum)/float64(known)*10) / 10
	}
	return stats, nil
}

func (s *reportingService) ServiceHistory(ctx context.Context, from, to time.Time) (*ServiceHistoryReport, error) {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period end precedes its start", ErrValidationInput)
	}
	events, err := repositories.NewGormServiceHistoryEventRepository(s.db).ListInPeriod(ctx, from, to, "")
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, e := range events {
		counts[e.EventType]++
	}
	byType := make([]EventTypeCount, 0, len(counts))
	for t, n := range counts {
		byType = append(byType, EventTypeCount{EventType: t, Count: n})
	}
	sort.Slice(byType, func(i, j int) bool {
		if byType[i].Count != byType[j].Count {
			return byType[i].Count > byType[j].Count
		}
		return byType[i].EventType < byType[j].EventType
	})
	return &ServiceHistoryReport{
		Period:      fmt.Sprintf("%s - %s", from.Format("02.01.2006"), to.Format("02.01.2006")),
		From:        from,
		To:          to,
		TotalEvents: len(events),
		ByType:      byType,
		Events:      events,
	}, nil
}

// expiredListLimit caps the expired contracts listed by ContractsStatus.
const expiredListLimit = 20

func (s *reportingService) ContractsStatus(ctx context.Context) (*ContractsStatus, error) {
	contracts := repositories.NewGormContractRepository(s.db)
	today := s.today()

	soon, err := contracts.EndingBetween(ctx, today, today.AddDate(0, 0, 30))
	if err != nil {
		return nil, err
	}
	later, err := contracts.EndingBetween(ctx, today.AddDate(0, 0, 31), today.AddDate(0, 0, 90))
	if err != nil {
		return nil, err
	}
	expired, err := contracts.ExpiredBefore(ctx, today, expiredListLimit)
	if err != nil {
		return nil, err
	}
	expiredCount, err := contracts.CountExpiredBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	return &ContractsStatus{
		Date:         today,
		Ending30Days: ContractGroup{Count: int64(len(soon)), List: soon},
		Ending90Days: ContractGroup{Count: int64(len(later)), List: later},
		Expired:      ContractGroup{Count: expiredCount, List: expired},
	}, nil
}

func (s *reportingService) ContractForecast(ctx context.Context) ([]ForecastMonth, error) {
	today := s.today()
	all, err := repositories.NewGormContractRepository(s.db).EndingBetween(ctx, today, today.AddDate(0, 0, 12*30))
	if err != nil {
		return nil, err
	}
	forecast := make([]ForecastMonth, 12)
	for i := range forecast {
		start := today.AddDate(0, 0, i*30)
		forecast[i] = ForecastMonth{Month: start.Format("01.2006"), From: start}
	}
	for _, c := range all {
		idx := int(c.EndDate.Sub(today).Hours() / 24 / 30)
		if idx >= 0 && idx < len(forecast) {
			forecast[idx].Count++
		}
	}
	return forecast, nil
}

func (s *reportingService) Export(ctx context.Context, actx audit.Context, kind string, params ExportParams) ([]byte, error) {
	var sheet *reportSheet
	switch kind {
	case ReportStaffing:
		r, err := s.UnitStaffing(ctx, params.UnitID)
		if err != nil {
			return nil, err
		}
		sheet = r.sheet()
	case ReportBrigade:
		r, err := s.BrigadeSummary(ctx)
		if err != nil {
			return nil, err
		}
		sheet = brigadeSheet(r)
	case ReportPersonnel:
		r, err := s.PersonnelStatistics(ctx)
		if err != nil {
			return nil, err
		}
		sheet = r.sheet()
	case ReportServiceHistory:
		r, err := s.ServiceHistory(ctx, params.From, params.To)
		if err != nil {
			return nil, err
		}
		sheet = r.sheet()
	case ReportContracts:
		r, err := s.ContractsStatus(ctx)
		if err != nil {
			return nil, err
		}
		sheet = r.sheet()
	case ReportForecast:
		r, err := s.ContractForecast(ctx)
		if err != nil {
			return nil, err
		}
		sheet = forecastSheet(r)
	default:
		return nil, fmt.Errorf("%w: unknown report %q", ErrValidationInput, kind)
	}

	data, err := sheet.render(s.now())
	if err != nil {
		return nil, err
	}
	changes := map[string]any{"report": kind}
	if params.UnitID != 0 {
		changes["unit_id"] = params.UnitID
	}
	if !params.From.IsZero() {
		changes["from"] = params.From
		changes["to"] = params.To
	}
	if err := s.recorder.Log(s.db.WithContext(ctx), actx, models.AuditExport, nil, changes, models.SeverityInfo, "XLSX: "+kind); err != nil {
		return nil, err
	}
	return data, nil
}
