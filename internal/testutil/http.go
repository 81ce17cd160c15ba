package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestSchool returns an unsaved school for handler tests that do not touch
// the database.
func TestSchool() models.School {
	return models.School{ID: primitive.NewObjectID(), Name: "Test School", Domain: "test.edu"}
}

// AdminSession returns an admin session in school.
func AdminSession(school models.School) *auth.Session {
	return &auth.Session{
		School: school,
		Membership: models.Membership{
			ID:        primitive.NewObjectID(),
			GoogleUID: "admin-" + primitive.NewObjectID().Hex(),
			Email:     "admin@" + school.Domain,
			Role:      models.RoleAdmin,
			SchoolID:  school.ID,
		},
	}
}

// StaffSession returns a staff-role session in school.
func StaffSession(school models.School) *auth.Session {
	s := AdminSession(school)
	s.Membership.Role = models.RoleStaff
	s.Membership.Email = "staff@" + school.Domain
	return s
}

// SessionFor builds a session from stored records.
func SessionFor(school models.School, m models.Membership) *auth.Session {
	return &auth.Session{School: school, Membership: m}
}

// WithSession adds s to the request context, bypassing the cookie.
func WithSession(r *http.Request, s *auth.Session) *http.Request {
	return auth.WithTestSession(r, s)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("Content-Type", "application/json")
	return r
}
