package validation

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format    string
		expectErr bool
	}{
		{format: "pretty"},
		{format: "csv"},
		{format: "json"},
		{format: "", expectErr: true},
		{format: "PRETTY", expectErr: true},
		{format: "JSON", expectErr: true},
		{format: " csv ", expectErr: true},
		{format: "prettyprint", expectErr: true},
		{format: "yaml", expectErr: true},
		{format: "xlsx", expectErr: true},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error but got none", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error = %v", tt.format, err)
			}
		})
	}
}

func TestValidateOutputFormatErrorNamesChoices(t *testing.T) {
	err := ValidateOutputFormat("xml")
	if err == nil {
		t.Fatal("expected error for xml")
	}
	for _, want := range []string{"pretty", "csv", "json", "got xml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}
