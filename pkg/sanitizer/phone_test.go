package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "vietnamese mobile with leading zero",
			input:    "0912345678",
			expected: "+84912345678",
		},
		{
			name:     "already E164",
			input:    "+84912345678",
			expected: "+84912345678",
		},
		{
			name:     "with spaces and dashes",
			input:    "091 234-5678",
			expected: "+84912345678",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePhone(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("0912345678")
	twice := NormalizePhone(once)
	if once != twice {
		t.Errorf("NormalizePhone not idempotent: %q != %q", once, twice)
	}
}
