package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// SQLDB wraps a raw database/sql connection pool. The digest reader runs its
// handwritten join SQL through this pool instead of GORM.
type SQLDB struct {
	conn *sql.DB
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewConnection creates a new raw database connection
func NewConnection(cfg Config) (*SQLDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool - the digest runs a handful of queries once a
	// day, so a small pool is plenty
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(2 * time.Minute)

	// Verify connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established (sql pool)")

	return &SQLDB{conn: conn}, nil
}

// Close closes the database connection
func (db *SQLDB) Close() error {
	if db.conn != nil {
		log.Println("📡 Closing sql connection pool...")
		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (db *SQLDB) Ping() error {
	return db.conn.Ping()
}

// GetConn returns the underlying sql.DB connection
func (db *SQLDB) GetConn() *sql.DB {
	return db.conn
}
