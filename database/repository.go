package database

import (
	"fmt"
	"time"
)

// ReportRepository handles schema management and read queries for the report
// store. Ingest-side writes live in the database/reports subpackage.
type ReportRepository struct {
	db *Database
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *Database) *ReportRepository {
	return &ReportRepository{db: db}
}

// InitSchema creates the two core tables. The schema is managed manually
// rather than through AutoMigrate so the constraint set stays exactly as
// declared: a unique (stock_code, report_year) pair key, a restrictive
// foreign key from annual_report_mda to annual_reports (no cascade), and
// created_at defaults applied by the database itself.
func (r *ReportRepository) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	if err := r.db.db.Exec(`
		CREATE TABLE IF NOT EXISTS annual_reports (
			id BIGSERIAL PRIMARY KEY,
			stock_code VARCHAR(10) NOT NULL,
			stock_name VARCHAR(100),
			report_year INT NOT NULL,
			publish_date DATE,
			file_path VARCHAR(500),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT uq_reports_code_year UNIQUE (stock_code, report_year)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create annual_reports table: %w", err)
	}

	if err := r.db.db.Exec(`
		CREATE TABLE IF NOT EXISTS annual_report_mda (
			id BIGSERIAL PRIMARY KEY,
			report_id BIGINT NOT NULL REFERENCES annual_reports(id),
			industry_section TEXT,
			main_business_section TEXT,
			future_section TEXT,
			full_mda TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create annual_report_mda table: %w", err)
	}

	// Lookup indexes beyond the declared keys
	r.db.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_mda_report_id
		ON annual_report_mda (report_id)
	`)
	r.db.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_mda_created_at
		ON annual_report_mda (created_at)
	`)
	r.db.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reports_publish_date
		ON annual_reports (publish_date)
	`)

	fmt.Println("✅ Database schema initialization completed successfully")
	return nil
}

// GetReport retrieves a single report by id
func (r *ReportRepository) GetReport(id int64) (*AnnualReport, error) {
	var report AnnualReport
	err := r.db.db.First(&report, id).Error
	if IsNotFound(err) {
		return nil, NewNotFoundErrorWithID("annual report", id)
	}
	if err != nil {
		return nil, WrapDBError("GetReport", err)
	}
	return &report, nil
}

// GetReportWithMDA retrieves a report joined with its MDA record, if one has
// been ingested yet.
func (r *ReportRepository) GetReportWithMDA(id int64) (*ReportWithMDA, error) {
	report, err := r.GetReport(id)
	if err != nil {
		return nil, err
	}

	var mda AnnualReportMDA
	err = r.db.db.Where("report_id = ?", id).Order("created_at DESC").First(&mda).Error
	if IsNotFound(err) {
		return &ReportWithMDA{Report: *report}, nil
	}
	if err != nil {
		return nil, WrapDBError("GetReportWithMDA", err)
	}
	return &ReportWithMDA{Report: *report, MDA: &mda}, nil
}

// ListReports retrieves reports with filters, newest publish date first.
func (r *ReportRepository) ListReports(stockCode string, year int, since time.Time, limit int) ([]AnnualReport, error) {
	var reports []AnnualReport
	query := r.db.db.Order("publish_date DESC NULLS LAST, stock_code ASC")

	if stockCode != "" {
		query = query.Where("stock_code = ?", stockCode)
	}
	if year > 0 {
		query = query.Where("report_year = ?", year)
	}
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&reports).Error; err != nil {
		return nil, WrapDBError("ListReports", err)
	}
	return reports, nil
}

// CountsByYear tallies stored reports per fiscal year for the stats endpoint.
func (r *ReportRepository) CountsByYear() ([]YearCount, error) {
	var counts []YearCount
	err := r.db.db.Model(&AnnualReport{}).
		Select("report_year, COUNT(*) AS count").
		Group("report_year").
		Order("report_year DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, WrapDBError("CountsByYear", err)
	}
	return counts, nil
}

// DeleteReport removes a report row. The foreign key is restrictive: if an
// MDA row still references the report, the delete fails and the caller gets a
// foreign-key violation (IsForeignKeyViolation).
func (r *ReportRepository) DeleteReport(id int64) error {
	result := r.db.db.Delete(&AnnualReport{}, id)
	if result.Error != nil {
		return WrapDBError("DeleteReport", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundErrorWithID("annual report", id)
	}
	return nil
}
