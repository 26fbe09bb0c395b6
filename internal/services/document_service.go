package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
	"github.com/personnel_accounting/pkg/utils"
)

// ErrAttachmentTooLarge is returned when an upload exceeds the configured size.
var ErrAttachmentTooLarge = fmt.Errorf("%w: attachment is too large", ErrValidationInput)

// DocumentService manages serviceman reports (рапорти).
type DocumentService interface {
	CreateReport(ctx context.Context, actx audit.Context, payload models.ServicemanReportPayload) (*models.ServicemanReport, error)
	GetReport(ctx context.Context, id int64) (*models.ServicemanReport, error)
	ListReports(ctx context.Context, filter repositories.ServicemanReportFilter) ([]models.ServicemanReport, int64, error)
	// UpdateReport edits a DRAFT report, optionally submitting it.
	UpdateReport(ctx context.Context, actx audit.Context, id int64, payload models.ServicemanReportUpdatePayload) (*models.ServicemanReport, error)
	// Review records the resolution and sets the review status; the actor
	// becomes the reviewer.
	Review(ctx context.Context, actx audit.Context, id int64, payload models.ReportReviewPayload) (*models.ServicemanReport, error)
	// AttachFile stores the upload under reports/<year>/<month>/<regno>/ and
	// links it to the report.
	AttachFile(ctx context.Context, actx audit.Context, id int64, filename string, size int64, content io.Reader) (*models.ServicemanReport, error)
}

type documentService struct {
	db        *gorm.DB
	recorder  *audit.Recorder
	mediaRoot string
	maxUpload int64
}

// NewDocumentService creates a DocumentService storing attachments below mediaRoot.
func NewDocumentService(db *gorm.DB, recorder *audit.Recorder, mediaRoot string, maxUpload int64) DocumentService {
	return &documentService{db: db, recorder: recorder, mediaRoot: mediaRoot, maxUpload: maxUpload}
}

func (s *documentService) report(ctx context.Context, tx *gorm.DB, id int64) (*models.ServicemanReport, error) {
	r, err := repositories.NewGormServicemanReportRepository(tx).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	return r, err
}

func checkRecipient(ctx context.Context, tx *gorm.DB, positionID *int64) error {
	if positionID == nil {
		return nil
	}
	_, err := repositories.NewGormPositionRepository(tx).GetByID(ctx, *positionID)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return &ReferenceError{Kind: "position", ID: *positionID}
	}
	return err
}

func (s *documentService) CreateReport(ctx context.Context, actx audit.Context, payload models.ServicemanReportPayload) (*models.ServicemanReport, error) {
	if !slices.Contains(models.ReportTypes, payload.ReportType) {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidationInput, payload.ReportType)
	}
	submitted, err := requiredDate("submissionDate", payload.SubmissionDate)
	if err != nil {
		return nil, err
	}
	r := &models.ServicemanReport{
		RegistrationNumber:  strings.TrimSpace(payload.RegistrationNumber),
		SubmissionDate:      submitted,
		ReportType:          payload.ReportType,
		Status:              models.ReportStatusDraft,
		AuthorID:            payload.AuthorID,
		RecipientPositionID: payload.RecipientPositionID,
		Summary:             strings.TrimSpace(payload.Summary),
		FullText:            payload.FullText,
	}
	if payload.Submit {
		r.Status = models.ReportStatusSubmitted
	}
	if r.RegistrationNumber == "" || r.Summary == "" {
		return nil, fmt.Errorf("%w: registration number and summary are required", ErrValidationInput)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := reloadMember(ctx, tx, r.AuthorID); err != nil {
			return err
		}
		if err := checkRecipient(ctx, tx, r.RecipientPositionID); err != nil {
			return err
		}
		exists, err := repositories.NewGormServicemanReportRepository(tx).ExistsRegistrationNumber(ctx, r.RegistrationNumber)
		if err != nil {
			return err
		}
		if exists {
			return ErrRegistrationExists
		}
		err = s.recorder.Save(tx, actx, r)
		if repositories.IsUniqueViolation(err, "registration_number") {
			return ErrRegistrationExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.report(ctx, s.db, r.ID)
}

func (s *documentService) GetReport(ctx context.Context, id int64) (*models.ServicemanReport, error) {
	return s.report(ctx, s.db, id)
}

func (s *documentService) ListReports(ctx context.Context, filter repositories.ServicemanReportFilter) ([]models.ServicemanReport, int64, error) {
	return repositories.NewGormServicemanReportRepository(s.db).List(ctx, filter)
}

func (s *documentService) UpdateReport(ctx context.Context, actx audit.Context, id int64, payload models.ServicemanReportUpdatePayload) (*models.ServicemanReport, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.report(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.Status != models.ReportStatusDraft {
			return ErrReportNotEditable
		}
		if payload.ReportType != nil {
			if !slices.Contains(models.ReportTypes, *payload.ReportType) {
				return fmt.Errorf("%w: unknown report type %q", ErrValidationInput, *payload.ReportType)
			}
			r.ReportType = *payload.ReportType
		}
		if payload.RecipientPositionID != nil {
			if *payload.RecipientPositionID == 0 {
				r.RecipientPositionID = nil
			} else {
				r.RecipientPositionID = payload.RecipientPositionID
			}
			if err := checkRecipient(ctx, tx, r.RecipientPositionID); err != nil {
				return err
			}
		}
		if payload.Summary != nil {
			r.Summary = strings.TrimSpace(*payload.Summary)
			if r.Summary == "" {
				return fmt.Errorf("%w: summary is required", ErrValidationInput)
			}
		}
		if payload.FullText != nil {
			r.FullText = *payload.FullText
		}
		if payload.Submit {
			r.Status = models.ReportStatusSubmitted
		}
		return s.recorder.Save(tx, actx, r)
	})
	if err != nil {
		return nil, err
	}
	return s.report(ctx, s.db, id)
}

// reviewFrom lists the statuses each review status may be reached from.
var reviewFrom = map[string][]string{
	models.ReportStatusUnderReview: {models.ReportStatusSubmitted},
	models.ReportStatusApproved:    {models.ReportStatusSubmitted, models.ReportStatusUnderReview},
	models.ReportStatusRejected:    {models.ReportStatusSubmitted, models.ReportStatusUnderReview},
	models.ReportStatusArchived:    {models.ReportStatusApproved, models.ReportStatusRejected},
}

func (s *documentService) Review(ctx context.Context, actx audit.Context, id int64, payload models.ReportReviewPayload) (*models.ServicemanReport, error) {
	from, ok := reviewFrom[payload.Status]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a review status", ErrValidationInput, payload.Status)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.report(ctx, tx, id)
		if err != nil {
			return err
		}
		if !slices.Contains(from, r.Status) {
			return fmt.Errorf("%w: report in status %s cannot move to %s", ErrConflict, r.Status, payload.Status)
		}
		r.Status = payload.Status
		if strings.TrimSpace(payload.Resolution) != "" {
			r.Resolution = strings.TrimSpace(payload.Resolution)
		}
		if payload.Status != models.ReportStatusArchived {
			r.ReviewedByID = actx.UserID
		}
		return s.recorder.Save(tx, actx, r)
	})
	if err != nil {
		return nil, err
	}
	return s.report(ctx, s.db, id)
}

func (s *documentService) AttachFile(ctx context.Context, actx audit.Context, id int64, filename string, size int64, content io.Reader) (*models.ServicemanReport, error) {
	if s.maxUpload > 0 && size > s.maxUpload {
		return nil, ErrAttachmentTooLarge
	}
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return nil, fmt.Errorf("%w: attachment file name is required", ErrValidationInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.report(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.Status == models.ReportStatusArchived {
			return ErrReportNotEditable
		}
		rel := filepath.ToSlash(filepath.Join("reports",
			fmt.Sprint(r.SubmissionDate.Year()), fmt.Sprint(int(r.SubmissionDate.Month())),
			utils.SafePathSegment(r.RegistrationNumber), name))
		if err := s.store(rel, content); err != nil {
			return err
		}
		r.AttachmentPath = &rel
		return s.recorder.Save(tx, actx, r)
	})
	if err != nil {
		return nil, err
	}
	return s.report(ctx, s.db, id)
}

func (s *documentService) store(rel string, content io.Reader) error {
	dst := filepath.Join(s.mediaRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create attachment directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	defer f.Close()
	var src io.Reader = content
	if s.maxUpload > 0 {
		src = io.LimitReader(content, s.maxUpload+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return fmt.Errorf("write attachment: %w", err)
	}
	if s.maxUpload > 0 && n > s.maxUpload {
		_ = os.Remove(dst)
		return ErrAttachmentTooLarge
	}
	return nil
}
