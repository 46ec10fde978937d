package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"asc lowercase", "asc", "ASC"},
		{"asc with spaces", "  ASC  ", "ASC"},
		{"desc", "desc", "DESC"},
		{"empty defaults to desc", "", "DESC"},
		{"injection defaults to desc", "ASC; DROP TABLE progress_reports", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"allowed field", "period", "period"},
		{"allowed field with spaces", "  status  ", "status"},
		{"empty falls back", "", "created_at"},
		{"unknown field falls back", "rejection_reason", "created_at"},
		{"injection falls back", "created_at; DELETE FROM progress_reports", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, ProgressReportSortFields, "created_at"))
		})
	}
}
