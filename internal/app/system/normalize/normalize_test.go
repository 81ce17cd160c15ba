package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  Head@Greenfield.EDU  ", "head@greenfield.edu"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Greenfield High", "Greenfield High"},
		{"  Greenfield   High  ", "Greenfield High"},
		{"", ""},
		{"UPPER case", "UPPER case"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoleAndStatus(t *testing.T) {
	if got := Role("  ADMIN "); got != "admin" {
		t.Errorf("Role = %q, want admin", got)
	}
	if got := Status("Inactive"); got != "inactive" {
		t.Errorf("Status = %q, want inactive", got)
	}
}

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ada@school.edu", "school.edu"},
		{"person@Example.COM", "example.com"},
		{"Ada@School.EDU", "school.edu"},
		{"odd@name@school.edu", "school.edu"},
		{"nobody", ""},
		{"trailing@", ""},
		{"", ""},
		{"ada@school.edu.", "school.edu"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := EmailDomain(tt.input); got != tt.want {
				t.Errorf("EmailDomain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	if got := Domain(" @School.EDU "); got != "school.edu" {
		t.Errorf("Domain = %q, want school.edu", got)
	}
}
