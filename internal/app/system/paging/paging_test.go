package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		target string
		want   int64
	}{
		{"/students", PageSize},
		{"/students?limit=10", 10},
		{"/students?limit=0", PageSize},
		{"/students?limit=-3", PageSize},
		{"/students?limit=abc", PageSize},
		{"/students?limit=5000", MaxPageSize},
		{"/students?limit=200", 200},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if got := ParseLimit(r); got != tt.want {
				t.Errorf("ParseLimit(%s) = %d, want %d", tt.target, got, tt.want)
			}
		})
	}
}
