package database

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", gorm.ErrDuplicatedKey, true},
		{"wrapped in DBError", WrapDBError("insert report", gorm.ErrDuplicatedKey), true},
		{"wrapped with fmt", fmt.Errorf("ingest: %w", gorm.ErrDuplicatedKey), true},
		{"other gorm error", gorm.ErrRecordNotFound, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicate(tt.err); got != tt.want {
				t.Errorf("IsDuplicate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(WrapDBError("insert mda", gorm.ErrForeignKeyViolated)) {
		t.Error("wrapped FK violation not detected")
	}
	if IsForeignKeyViolation(gorm.ErrDuplicatedKey) {
		t.Error("duplicate key misreported as FK violation")
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NotFoundError", NewNotFoundErrorWithID("report", 42), true},
		{"wrapped NotFoundError", fmt.Errorf("lookup: %w", NewNotFoundErrorWithID("report", 42)), true},
		{"gorm record not found", gorm.ErrRecordNotFound, true},
		{"wrapped gorm record not found", WrapDBError("get report", gorm.ErrRecordNotFound), true},
		{"unrelated", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	dbErr := WrapDBError("insert report", errors.New("connection reset"))
	if dbErr.Error() != "database error in insert report: connection reset" {
		t.Errorf("DBError message = %q", dbErr.Error())
	}

	nf := NewNotFoundErrorWithID("report", 7)
	if nf.Error() != "report not found: 7" {
		t.Errorf("NotFoundError message = %q", nf.Error())
	}

	val := NewValidationError("stock_code", "must be 6 digits")
	if val.Error() != "validation failed for field 'stock_code': must be 6 digits" {
		t.Errorf("ValidationError message = %q", val.Error())
	}
}
