// internal/app/features/members/edit.go
package members

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Error codes specific to membership edits.
const (
	CodeSelfDemotion  = "SELF_DEMOTION"
	CodeStaffNotFound = "STAFF_NOT_FOUND"
)

// Absent fields are left unchanged. staffId "" removes the link.
type editInput struct {
	Role    *string `json:"role" validate:"omitempty,oneof=admin staff"`
	StaffID *string `json:"staffId"`
}

// ServeEdit handles PATCH /members/{id}.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "membership")
	if !ok {
		return
	}
	var in editInput
	if !shared.Decode(w, r, &in) {
		return
	}
	if in.Role == nil && in.StaffID == nil {
		jsonresp.Invalid(w, r, inputval.Field("body", "nothing to update"))
		return
	}
	if in.Role != nil && id == s.Membership.ID && *in.Role != models.RoleAdmin {
		jsonresp.Error(w, r, http.StatusConflict, CodeSelfDemotion, "you cannot remove your own admin role")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "edit membership")
	defer cancel()

	u := membershipstore.Update{Role: in.Role}
	changes := map[string]string{}
	if in.Role != nil {
		changes["role"] = *in.Role
	}
	if in.StaffID != nil {
		raw := strings.TrimSpace(*in.StaffID)
		if raw == "" {
			u.ClearStaff = true
			changes["staff_id"] = ""
		} else {
			staffID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				jsonresp.Invalid(w, r, inputval.Field("staffId", "staffId is not a valid id"))
				return
			}
			if _, err := h.Staff.GetByID(ctx, s.SchoolID(), staffID); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					jsonresp.Error(w, r, http.StatusNotFound, CodeStaffNotFound, "staff profile not found")
					return
				}
				h.ErrLog.LogServerError(w, r, "load staff for membership link", err)
				return
			}
			u.StaffID = &staffID
			changes["staff_id"] = staffID.Hex()
		}
	}

	m, err := h.Memberships.Apply(ctx, s.SchoolID(), id, u)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "membership", "edit membership", err)
		return
	}

	h.Log.Info("membership updated",
		zap.String("membership_id", m.ID.Hex()),
		zap.String("school_id", m.SchoolID.Hex()),
		zap.String("actor", s.Membership.ID.Hex()),
		zap.Any("changes", changes))
	h.AuditLog.MembershipUpdated(ctx, r, s.Membership.ID, m, changes)
	jsonresp.OK(w, r, m)
}
