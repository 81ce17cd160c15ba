// internal/app/features/auditlog/types.go
package auditlog

import (
	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
)

// listItem is one audit event with the acting and affected memberships'
// emails resolved.
type listItem struct {
	audit.Event
	ActorEmail  string `json:"actorEmail,omitempty"`
	TargetEmail string `json:"targetEmail,omitempty"`
}

type listResponse struct {
	Items      []listItem `json:"items"`
	Total      int64      `json:"total"`
	Limit      int64      `json:"limit"`
	Categories []string   `json:"categories"`
	EventTypes []string   `json:"eventTypes"`
}

func allCategories() []string {
	return []string{audit.CategoryAuth, audit.CategoryAdmin}
}

// eventTypesForCategory returns the event types for a category, or all of
// them when category is empty.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventSignInSuccess,
		audit.EventSignInFailed,
		audit.EventSignInRateLimited,
		audit.EventSignOut,
	}
	adminEvents := []string{
		audit.EventSchoolCreated,
		audit.EventMembershipCreated,
		audit.EventMembershipEmailSynced,
		audit.EventMembershipUpdated,
		audit.EventStaffDeleted,
		audit.EventStudentDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		return append(all, adminEvents...)
	default:
		return nil
	}
}
