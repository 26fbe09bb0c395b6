// Package importer loads service members from CSV or XLSX sheets keyed by
// tax ID. Each run is one transaction; a failing row is counted and skipped.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/internal/services"
	"github.com/personnel_accounting/pkg/logger"
	"github.com/personnel_accounting/pkg/metrics"
	"github.com/personnel_accounting/pkg/utils"
)

// Row outcomes.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// OrderReference is recorded on history rows written by an import.
const OrderReference = "Імпорт"

var (
	ErrUnsupportedFormat = errors.New("unsupported import format, expected .csv or .xlsx")
	errDryRun            = errors.New("dry run")
)

// Options control an import run.
type Options struct {
	Update bool // overwrite members that already exist
	DryRun bool // roll back at the end
}

// RowIssue is an error or warning attached to a source line.
type RowIssue struct {
	Line    int    `json:"line"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// Result summarizes an import run.
type Result struct {
	Created  int        `json:"created"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	DryRun   bool       `json:"dryRun"`
	Failures []RowIssue `json:"failures,omitempty"`
	Warnings []RowIssue `json:"warnings,omitempty"`
}

// Importer writes records through the audit recorder and the transition service.
type Importer struct {
	db          *gorm.DB
	recorder    *audit.Recorder
	transitions services.TransitionService
	now         func() time.Time
}

// New creates an Importer.
func New(db *gorm.DB, recorder *audit.Recorder, transitions services.TransitionService) *Importer {
	return &Importer{db: db, recorder: recorder, transitions: transitions, now: time.Now}
}

// ImportFile reads path by extension and imports its records.
func (im *Importer) ImportFile(ctx context.Context, actx audit.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = ReadCSV(f)
	case ".xlsx":
		records, err = ReadXLSX(f)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, actx, records, opts)
}

// Import applies records in one transaction. Row failures roll back only
// their own savepoint.
func (im *Importer) Import(ctx context.Context, actx audit.Context, records []Record, opts Options) (*Result, error) {
	log := logger.FromContext(ctx).WithField("component", "importer")
	res := &Result{DryRun: opts.DryRun}

	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			var outcome string
			err := tx.Transaction(func(rowTx *gorm.DB) error {
				var err error
				outcome, err = im.importRow(ctx, rowTx, actx, rec, opts, res)
				return err
			})
			if err != nil {
				outcome = OutcomeError
				res.Errors++
				res.Failures = append(res.Failures, RowIssue{Line: rec.Line, Name: rec.Name(), Message: err.Error()})
				log.WithFields(logrus.Fields{"line": rec.Line}).WithError(err).Warn("import row failed")
			}
			switch outcome {
			case OutcomeCreated:
				res.Created++
			case OutcomeUpdated:
				res.Updated++
			case OutcomeSkipped:
				res.Skipped++
			}
			metrics.ImportedRows.WithLabelValues(outcome).Inc()
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"created": res.Created, "updated": res.Updated, "skipped": res.Skipped,
		"errors": res.Errors, "dry-run": opts.DryRun,
	}).Info("personnel import finished")
	return res, nil
}

func (im *Importer) warn(res *Result, rec Record, format string, args ...any) {
	res.Warnings = append(res.Warnings, RowIssue{Line: rec.Line, Name: rec.Name(), Message: fmt.Sprintf(format, args...)})
}

func (im *Importer) importRow(ctx context.Context, tx *gorm.DB, actx audit.Context, rec Record, opts Options, res *Result) (string, error) {
	for _, col := range requiredColumns {
		if rec.Get(col) == "" {
			return "", fmt.Errorf("required field %q is empty", col)
		}
	}
	dob, err := utils.ParseDate(rec.Get(ColDateOfBirth))
	if err != nil {
		return "", fmt.Errorf("invalid date of birth %q", rec.Get(ColDateOfBirth))
	}
	taxID := rec.Get(ColTaxID)
	if err := utils.ValidateTaxID(taxID); err != nil {
		return "", err
	}

	rank, err := repositories.NewGormReferenceRepository(tx).GetRankByName(ctx, rec.Get(ColRank))
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return "", fmt.Errorf("rank %q not found", rec.Get(ColRank))
	} else if err != nil {
		return "", err
	}

	var position *models.Position
	if index := rec.Get(ColPositionIndex); index != "" {
		position, err = repositories.NewGormPositionRepository(tx).GetByIndex(ctx, index)
		if errors.Is(err, repositories.ErrRecordNotFound) {
			im.warn(res, rec, "position %q not found", index)
			position = nil
		} else if err != nil {
			return "", err
		}
	}

	today := im.now()
	member, err := repositories.NewGormServiceMemberRepository(tx).GetByTaxID(ctx, taxID)
	switch {
	case errors.Is(err, repositories.ErrRecordNotFound):
		member = &models.ServiceMember{Status: models.StatusOnDuty, RankID: rank.ID, TaxIDNumber: &taxID}
		im.fill(member, rec, dob)
		if err := im.recorder.Save(tx, actx, member); err != nil {
			return "", err
		}
		member.Rank = *rank
		if err := im.transitions.RecordEvent(ctx, tx, member, models.EventEnlistment, nil, OrderReference, today); err != nil {
			return "", err
		}
		if err := im.assign(ctx, tx, actx, member, position, today, rec, res); err != nil {
			return "", err
		}
		return OutcomeCreated, nil
	case err != nil:
		return "", err
	case !opts.Update:
		return OutcomeSkipped, nil
	}

	im.fill(member, rec, dob)
	if err := im.recorder.Save(tx, actx, member); err != nil {
		return "", err
	}
	if member.RankID != rank.ID {
		err := im.transitions.Promote(ctx, tx, actx, member, rank, OrderReference, today)
		switch {
		case errors.Is(err, services.ErrMemberNotActive):
			im.warn(res, rec, "member is not active, rank %q not applied", rank.Name)
		case err != nil:
			return "", err
		}
	}
	if err := im.assign(ctx, tx, actx, member, position, today, rec, res); err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}

func (im *Importer) fill(m *models.ServiceMember, rec Record, dob time.Time) {
	m.LastName = rec.Get(ColLastName)
	m.FirstName = rec.Get(ColFirstName)
	m.MiddleName = rec.Get(ColMiddleName)
	m.DateOfBirth = &dob
	m.PlaceOfBirth = rec.Get(ColPlaceOfBirth)
	m.PassportNumber = rec.Get(ColPassport)
}

// assign appoints member to position unless already there. An occupied
// position or an inactive member is a warning, not a row failure.
func (im *Importer) assign(ctx context.Context, tx *gorm.DB, actx audit.Context, member *models.ServiceMember, position *models.Position, date time.Time, rec Record, res *Result) error {
	if position == nil || (member.PositionID != nil && *member.PositionID == position.ID) {
		return nil
	}
	eventType := models.EventAppointment
	if member.PositionID != nil {
		eventType = models.EventTransfer
	}
	err := im.transitions.AssignPosition(ctx, tx, actx, member, position, OrderReference, date, eventType)
	var occupied *services.PositionOccupiedError
	switch {
	case errors.As(err, &occupied):
		im.warn(res, rec, "position %q is held by member #%d", position.PositionIndex, occupied.OccupantID)
		return nil
	case errors.Is(err, services.ErrMemberNotActive):
		im.warn(res, rec, "member is not active, position %q not assigned", position.PositionIndex)
		return nil
	}
	return err
}
