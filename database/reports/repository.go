// Package reports contains the ingest-side repository for annual report and
// MDA rows: existence checks, inserts, and the incremental queries the digest
// preview uses.
package reports

import (
	"fmt"
	"time"

	"reportclaw/database"
	models "reportclaw/database/models_pkg"

	"gorm.io/gorm"
)

// Repository handles write operations for annual reports and their MDA rows
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reports repository
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db.DB()}
}

// Exists reports whether a report row is already stored for the given
// company and fiscal year. The crawler calls this before downloading so a
// report never gets fetched twice, even across exchanges.
func (r *Repository) Exists(stockCode string, year int) (bool, error) {
	var count int64
	err := r.db.Model(&models.AnnualReport{}).
		Where("stock_code = ? AND report_year = ?", stockCode, year).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return count > 0, nil
}

// InsertReport persists a new annual report row and returns its id.
// A duplicate (stock_code, report_year) pair fails with a unique violation
// (database.IsDuplicate); missing stock_code or report_year fails with a
// not-null violation from the database.
func (r *Repository) InsertReport(report *models.AnnualReport) (int64, error) {
	if err := r.db.Create(report).Error; err != nil {
		return 0, fmt.Errorf("InsertReport: %w", err)
	}
	return report.ID, nil
}

// InsertMDA persists the extracted MDA sections for a report. An unknown
// report id fails with a foreign-key violation
// (database.IsForeignKeyViolation).
func (r *Repository) InsertMDA(mda *models.AnnualReportMDA) error {
	if err := r.db.Create(mda).Error; err != nil {
		return fmt.Errorf("InsertMDA: %w", err)
	}
	return nil
}

// GetMDAByReportID retrieves the MDA row for a report, nil when none exists.
func (r *Repository) GetMDAByReportID(reportID int64) (*models.AnnualReportMDA, error) {
	var mda models.AnnualReportMDA
	err := r.db.Where("report_id = ?", reportID).Order("created_at DESC").First(&mda).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetMDAByReportID: %w", err)
	}
	return &mda, nil
}

// IngestedSince returns reports whose MDA rows were created inside
// (since, until], joined with their sections. This is the digest's
// incremental window keyed on annual_report_mda.created_at, so a report
// registered yesterday but extracted today still makes today's digest.
func (r *Repository) IngestedSince(since, until time.Time) ([]models.ReportWithMDA, error) {
	var mdas []models.AnnualReportMDA
	err := r.db.Where("created_at > ? AND created_at <= ?", since, until).
		Order("created_at ASC").
		Find(&mdas).Error
	if err != nil {
		return nil, fmt.Errorf("IngestedSince: %w", err)
	}

	out := make([]models.ReportWithMDA, 0, len(mdas))
	for i := range mdas {
		var report models.AnnualReport
		if err := r.db.First(&report, mdas[i].ReportID).Error; err != nil {
			return nil, fmt.Errorf("IngestedSince: report %d: %w", mdas[i].ReportID, err)
		}
		out = append(out, models.ReportWithMDA{Report: report, MDA: &mdas[i]})
	}
	return out, nil
}
