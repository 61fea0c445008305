package luhn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker_Check(t *testing.T) {
	checker := Checker{}

	tests := []struct {
		name    string
		cardID  string
		wantErr bool
	}{
		{"valid visa", "4532015112830366", false},
		{"valid visa test number", "4111111111111111", false},
		{"valid with separators", "4532 0151 1283 0366", false},
		{"checksum failure", "4532015112830367", true},
		{"too short", "411111111111", true},
		{"too long", "41111111111111111111", true},
		{"letters", "4111x11111111111", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.Check(tt.cardID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
