package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
)

// ServicemanReportFilter narrows report queries.
type ServicemanReportFilter struct {
	ListParams
	Status     string
	ReportType string
	AuthorID   int64
}

// ServicemanReportRepository defines read access to serviceman reports.
// Writes go through the audit recorder.
type ServicemanReportRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ServicemanReport, error)
	ExistsRegistrationNumber(ctx context.Context, regNo string) (bool, error)
	List(ctx context.Context, f ServicemanReportFilter) ([]models.ServicemanReport, int64, error)
}

type gormServicemanReportRepository struct {
	db *gorm.DB
}

// NewGormServicemanReportRepository creates a ServicemanReportRepository on db.
func NewGormServicemanReportRepository(db *gorm.DB) ServicemanReportRepository {
	return &gormServicemanReportRepository{db: db}
}

func (r *gormServicemanReportRepository) GetByID(ctx context.Context, id int64) (*models.ServicemanReport, error) {
	var rep models.ServicemanReport
	err := r.db.WithContext(ctx).
		Preload("Author").Preload("Author.Rank").
		Preload("RecipientPosition").Preload("RecipientPosition.Unit").
		First(&rep, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *gormServicemanReportRepository) ExistsRegistrationNumber(ctx context.Context, regNo string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ServicemanReport{}).Where("registration_number = ?", regNo).Count(&n).Error
	return n > 0, err
}

func (r *gormServicemanReportRepository) filtered(ctx context.Context, f ServicemanReportFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.ServicemanReport{})
	if f.Search != "" {
		term := "%" + f.Search + "%"
		tx = tx.Where("registration_number LIKE ? OR summary LIKE ?", term, term)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.ReportType != "" {
		tx = tx.Where("report_type = ?", f.ReportType)
	}
	if f.AuthorID != 0 {
		tx = tx.Where("author_id = ?", f.AuthorID)
	}
	return tx
}

func (r *gormServicemanReportRepository) List(ctx context.Context, f ServicemanReportFilter) ([]models.ServicemanReport, int64, error) {
	f.ListParams = f.ListParams.Normalize()
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	allowed := map[string]string{
		"id":                 "id",
		"submissionDate":     "submission_date",
		"registrationNumber": "registration_number",
		"status":             "status",
	}
	var reports []models.ServicemanReport
	err := r.filtered(ctx, f).
		Preload("Author").Preload("Author.Rank").
		Order(orderClause(f.ListParams, allowed, "submission_date")).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&reports).Error
	return reports, total, err
}
