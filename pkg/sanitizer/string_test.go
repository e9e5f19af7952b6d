package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "leading and trailing spaces", input: "  Nguyen Van A  ", expected: "Nguyen Van A"},
		{name: "collapse internal whitespace", input: "Nguyen\t\tVan   A", expected: "Nguyen Van A"},
		{name: "empty", input: "", expected: ""},
		{name: "only whitespace", input: " \t\n ", expected: ""},
		{name: "already clean", input: "Court 3", expected: "Court 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  Badminton  Court "); got != "badminton court" {
		t.Errorf("NormalizeLabel = %q, want %q", got, "badminton court")
	}
}
