// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/paging"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /audit?category=&eventType=&startDate=&endDate=&limit=.
// Only the session's school is ever queried.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	schoolID := s.SchoolID()

	category := strings.TrimSpace(query.Get(r, "category"))
	filter := audit.QueryFilter{
		SchoolID:  &schoolID,
		Category:  category,
		EventType: strings.TrimSpace(query.Get(r, "eventType")),
		Limit:     paging.ParseLimit(r),
	}

	var bad inputval.Errors
	if v := query.Get(r, "startDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.Since = &t
		} else {
			bad = append(bad, inputval.FieldError{Field: "startDate", Error: "startDate must be YYYY-MM-DD"})
		}
	}
	if v := query.Get(r, "endDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.Until = &endOfDay
		} else {
			bad = append(bad, inputval.FieldError{Field: "endDate", Error: "endDate must be YYYY-MM-DD"})
		}
	}
	if len(bad) > 0 {
		jsonresp.Invalid(w, r, bad)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events", err)
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events", err)
		return
	}

	// Membership emails for actor/target display.
	emails := map[primitive.ObjectID]string{}
	if ms, err := h.Memberships.ListBySchool(ctx, schoolID); err != nil {
		h.Log.Warn("failed to resolve membership emails for audit log", zap.Error(err))
	} else {
		for _, m := range ms {
			emails[m.ID] = m.Email
		}
	}
	lookup := func(id *primitive.ObjectID) string {
		if id == nil {
			return ""
		}
		if email, ok := emails[*id]; ok {
			return email
		}
		return id.Hex()
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			Event:       e,
			ActorEmail:  lookup(e.ActorID),
			TargetEmail: lookup(e.MembershipID),
		})
	}

	jsonresp.OK(w, r, listResponse{
		Items:      items,
		Total:      total,
		Limit:      filter.Limit,
		Categories: allCategories(),
		EventTypes: eventTypesForCategory(category),
	})
}
