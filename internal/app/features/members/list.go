// internal/app/features/members/list.go
package members

import (
	"net/http"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberRow is a membership with the linked staff profile's name resolved.
type memberRow struct {
	models.Membership
	StaffName string `json:"staffName,omitempty"`
}

// ServeList handles GET /members.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	ms, err := h.Memberships.ListBySchool(ctx, s.SchoolID())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members", err)
		return
	}

	// Staff names are resolved one by one; schools have few linked members.
	names := map[primitive.ObjectID]string{}
	rows := make([]memberRow, 0, len(ms))
	for _, m := range ms {
		row := memberRow{Membership: m}
		if m.StaffID != nil {
			name, seen := names[*m.StaffID]
			if !seen {
				if st, err := h.Staff.GetByID(ctx, s.SchoolID(), *m.StaffID); err == nil {
					name = st.FullName
				}
				names[*m.StaffID] = name
			}
			row.StaffName = name
		}
		rows = append(rows, row)
	}
	jsonresp.OK(w, r, map[string]any{"items": rows})
}
