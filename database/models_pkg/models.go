package models

import "time"

// AnnualReport represents one registered annual report for a listed company.
// Exactly one row may exist per (stock_code, report_year) pair; the crawler
// checks the cache and the database before inserting, and the unique index is
// the final guard against a duplicate slipping through a race.
//
// Key Fields:
//   - StockCode: exchange ticker of the company (required)
//   - StockName: display name as published with the announcement
//   - ReportYear: fiscal year the report covers (required)
//   - PublishDate: disclosure date of the announcement
//   - FilePath: local path of the downloaded source PDF
//   - CreatedAt: row insertion time, defaulted by the database
type AnnualReport struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	StockCode   string     `gorm:"size:10;not null;uniqueIndex:idx_reports_code_year" json:"stock_code"`
	StockName   *string    `gorm:"size:100" json:"stock_name,omitempty"`
	ReportYear  int        `gorm:"not null;uniqueIndex:idx_reports_code_year" json:"report_year"`
	PublishDate *time.Time `gorm:"type:date" json:"publish_date,omitempty"`
	FilePath    *string    `gorm:"size:500" json:"file_path,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for AnnualReport
func (AnnualReport) TableName() string {
	return "annual_reports"
}

// AnnualReportMDA holds the extracted Management Discussion & Analysis text of
// one annual report. The row belongs to exactly one AnnualReport; the foreign
// key is restrictive, so a report with an MDA row cannot be deleted until the
// MDA row is removed first.
//
// All four text fields are nullable: extraction is best-effort and the
// pipeline stores NULL for sections it could not isolate. In practice
// IndustrySection is always NULL today (the extractor keeps the column for a
// future industry-discussion pass).
type AnnualReportMDA struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID            int64     `gorm:"not null;index" json:"report_id"`
	IndustrySection     *string   `gorm:"type:text" json:"industry_section,omitempty"`
	MainBusinessSection *string   `gorm:"type:text" json:"main_business_section,omitempty"`
	FutureSection       *string   `gorm:"type:text" json:"future_section,omitempty"`
	FullMDA             *string   `gorm:"column:full_mda;type:text" json:"full_mda,omitempty"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for AnnualReportMDA
func (AnnualReportMDA) TableName() string {
	return "annual_report_mda"
}

// ReportWithMDA is the joined read model returned by the API and the digest:
// one annual report together with its extracted sections, if any.
type ReportWithMDA struct {
	Report AnnualReport     `json:"report"`
	MDA    *AnnualReportMDA `json:"mda,omitempty"`
}

// YearCount is a per-fiscal-year report tally used by the stats endpoint.
type YearCount struct {
	ReportYear int   `json:"report_year"`
	Count      int64 `json:"count"`
}
