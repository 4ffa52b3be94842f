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
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE orders;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "total", ValidateSortField("total", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("password_hash", OrderSortFields, "created_at"))
	assert.Equal(t, "stock", ValidateSortField(" stock ", AdminProductSortFields, "created_at"))
}
