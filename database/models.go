// Package database provides database connection management for the reportclaw
// annual report ingestion system.
//
// This package includes:
//   - GORM connection management against PostgreSQL
//   - A raw database/sql connection pool for handwritten digest queries
//   - Schema initialization for the two core tables
//   - Comprehensive error handling for constraint violations
//
// Key Concepts:
//   - annual_reports is keyed by a surrogate id with a unique
//     (stock_code, report_year) pair: one report record per company per year
//   - annual_report_mda references its parent report with a restrictive
//     foreign key (no cascade), so parents cannot be deleted from under it
//
// Data Models:
//
//	All data models (AnnualReport, AnnualReportMDA, ...) are defined in the
//	models_pkg package to avoid circular import dependencies.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "reportclaw/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the
// underlying DB instance. It serves as the central connection point for all
// repository operations in the application.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes the database connection using GORM.
// TranslateError is enabled so constraint violations surface as the gorm
// sentinel errors checked by IsDuplicate / IsForeignKeyViolation.
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Silent logging for production
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ============================================================================
// Backward Compatibility Type Aliases
// ============================================================================

// These type aliases let callers keep importing the core types from the
// database package directly.

type AnnualReport = models.AnnualReport
type AnnualReportMDA = models.AnnualReportMDA
type ReportWithMDA = models.ReportWithMDA
type YearCount = models.YearCount
