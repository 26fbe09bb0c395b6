package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
)

func TestReportWorkflow(t *testing.T) {
	env := newTransitionEnv(t)
	media := t.TempDir()
	svc := NewDocumentService(env.db, audit.NewRecorder(), media, 1024)
	ctx := context.Background()
	author := env.fx.Member("Петлюра", env.sergeant)

	payload := models.ServicemanReportPayload{
		RegistrationNumber: "17/3",
		SubmissionDate:     "2024-05-06",
		ReportType:         models.ReportTypeLeave,
		AuthorID:           author.ID,
		Summary:            "Про надання відпустки",
	}
	r, err := svc.CreateReport(ctx, audit.System, payload)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDraft, r.Status)

	_, err = svc.CreateReport(ctx, audit.System, payload)
	assert.ErrorIs(t, err, ErrRegistrationExists)

	bad := payload
	bad.RegistrationNumber = "18"
	bad.ReportType = "COMPLAINT"
	_, err = svc.CreateReport(ctx, audit.System, bad)
	assert.ErrorIs(t, err, ErrValidationInput)
	bad.ReportType = models.ReportTypeOther
	bad.AuthorID = 999
	_, err = svc.CreateReport(ctx, audit.System, bad)
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	_, err = svc.Review(ctx, audit.System, r.ID, models.ReportReviewPayload{Status: models.ReportStatusApproved})
	assert.ErrorIs(t, err, ErrConflict)

	text := "Прошу надати щорічну відпустку"
	r, err = svc.UpdateReport(ctx, audit.System, r.ID, models.ServicemanReportUpdatePayload{FullText: &text, Submit: true})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, r.Status)
	_, err = svc.UpdateReport(ctx, audit.System, r.ID, models.ServicemanReportUpdatePayload{FullText: &text})
	assert.ErrorIs(t, err, ErrReportNotEditable)

	reviewer := int64(5)
	r, err = svc.Review(ctx, audit.Context{UserID: &reviewer}, r.ID, models.ReportReviewPayload{Status: models.ReportStatusApproved, Resolution: "Погоджено"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, r.Status)
	require.NotNil(t, r.ReviewedByID)
	assert.Equal(t, reviewer, *r.ReviewedByID)
	assert.Equal(t, "Погоджено", r.Resolution)

	r, err = svc.AttachFile(ctx, audit.System, r.ID, "../../scan.pdf", 7, strings.NewReader("%PDF-1."))
	require.NoError(t, err)
	require.NotNil(t, r.AttachmentPath)
	assert.Equal(t, "reports/2024/5/17-3/scan.pdf", *r.AttachmentPath)
	stored, err := os.ReadFile(filepath.Join(media, "reports", "2024", "5", "17-3", "scan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.", string(stored))

	_, err = svc.AttachFile(ctx, audit.System, r.ID, "big.pdf", 4096, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrAttachmentTooLarge)

	list, total, err := svc.ListReports(ctx, repositories.ServicemanReportFilter{Status: models.ReportStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}
