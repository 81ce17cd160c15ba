// internal/app/system/tenancy/errors.go
package tenancy

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentityMismatch means the claimed uid is not the verified subject.
	ErrIdentityMismatch = errors.New("claimed uid does not match the verified identity")
	// ErrEmailMismatch means the claimed email is not the verified email.
	ErrEmailMismatch = errors.New("claimed email does not match the verified identity")
	// ErrDomainMissing means the verified email has no domain part.
	ErrDomainMissing = errors.New("verified email has no domain")
	// ErrMembershipNotFound means the school already has members and the
	// caller did not supply a school name to join with.
	ErrMembershipNotFound = errors.New("no membership for this account in the school")
	// ErrMembershipConflict means the school already has a membership with
	// the caller's email under a different Google account.
	ErrMembershipConflict = errors.New("another account already uses this email in the school")
)

// DomainMismatchError means the caller's domain is not the one required,
// either by the configured workspace domain or by an existing membership.
type DomainMismatchError struct {
	Expected string
	Actual   string
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("email domain %q does not match %q", e.Actual, e.Expected)
}

// SchoolNotFoundError means no school owns the domain and none may be created.
type SchoolNotFoundError struct {
	Domain string
}

func (e *SchoolNotFoundError) Error() string {
	return fmt.Sprintf("no school registered for domain %q", e.Domain)
}

// Code returns the stable upper-case code clients see for a resolver error,
// or "" when err is not a resolver outcome.
func Code(err error) string {
	var dm *DomainMismatchError
	var snf *SchoolNotFoundError
	switch {
	case errors.Is(err, ErrIdentityMismatch):
		return "IDENTITY_MISMATCH"
	case errors.Is(err, ErrEmailMismatch):
		return "EMAIL_MISMATCH"
	case errors.Is(err, ErrDomainMissing):
		return "DOMAIN_MISSING"
	case errors.As(err, &dm):
		return "DOMAIN_MISMATCH"
	case errors.As(err, &snf):
		return "SCHOOL_NOT_FOUND"
	case errors.Is(err, ErrMembershipNotFound):
		return "MEMBERSHIP_NOT_FOUND"
	case errors.Is(err, ErrMembershipConflict):
		return "MEMBERSHIP_CONFLICT"
	}
	return ""
}
