package instrumentation

import "testing"

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{0, "none"},
		{101, "1xx"},
		{200, "2xx"},
		{204, "2xx"},
		{302, "3xx"},
		{402, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{999, "none"},
	}

	for _, tt := range tests {
		if got := StatusClass(tt.code); got != tt.expected {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.code, got, tt.expected)
		}
	}
}
