// internal/app/system/auditlog/logger.go
package auditlog

// Terminology: Identifiers
//   - MembershipID / membership_id: the MongoDB ObjectID (_id) of a membership
//   - GoogleUID / google_uid: the Google account subject presented at sign-in

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
	"github.com/dalemusser/schoolsuite/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// ValidSetting reports whether s is a known destination.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Config selects the destination per event category.
type Config struct {
	Auth  string
	Admin string
}

// Sink persists events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to MongoDB and zap.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{sink: sink, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.SchoolID != nil {
		fields = append(fields, zap.String("school_id", event.SchoolID.Hex()))
	}
	if event.MembershipID != nil {
		fields = append(fields, zap.String("membership_id", event.MembershipID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.GoogleUID != "" {
		fields = append(fields, zap.String("google_uid", event.GoogleUID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Record writes event to the destinations configured for its category.
// A nil Logger is a no-op.
func (l *Logger) Record(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := All
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, e audit.Event) audit.Event {
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
	return e
}

func oid(id primitive.ObjectID) *primitive.ObjectID { return &id }

// --- Authentication Events ---

// SignInSucceeded logs a session issued for m.
func (l *Logger) SignInSucceeded(ctx context.Context, r *http.Request, m models.Membership) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:     audit.CategoryAuth,
		EventType:    audit.EventSignInSuccess,
		SchoolID:     oid(m.SchoolID),
		MembershipID: oid(m.ID),
		GoogleUID:    m.GoogleUID,
		Success:      true,
		Details:      map[string]string{"role": m.Role},
	}))
}

// SignInFailed logs a rejected sign-in with its error code.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, uid, email, code string) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSignInFailed,
		GoogleUID:     uid,
		FailureReason: code,
		Details:       map[string]string{"email": email},
	}))
}

// SignInRateLimited logs an attempt refused by the limiter.
func (l *Logger) SignInRateLimited(ctx context.Context, r *http.Request, uid string) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSignInRateLimited,
		GoogleUID:     uid,
		FailureReason: "RATE_LIMITED",
	}))
}

// SignedOut logs a cleared session. m is nil when no session was active.
func (l *Logger) SignedOut(ctx context.Context, r *http.Request, m *models.Membership) {
	e := audit.Event{Category: audit.CategoryAuth, EventType: audit.EventSignOut, Success: true}
	if m != nil {
		e.SchoolID = oid(m.SchoolID)
		e.MembershipID = oid(m.ID)
		e.GoogleUID = m.GoogleUID
	}
	l.Record(ctx, fromRequest(r, e))
}

// --- Admin Events ---

// SchoolCreated logs a school created on first sign-in from its domain.
func (l *Logger) SchoolCreated(ctx context.Context, r *http.Request, s models.School, uid string) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventSchoolCreated,
		SchoolID:  oid(s.ID),
		GoogleUID: uid,
		Success:   true,
		Details:   map[string]string{"domain": s.Domain, "name": s.Name},
	}))
}

// MembershipCreated logs a membership created on first sign-in.
func (l *Logger) MembershipCreated(ctx context.Context, r *http.Request, m models.Membership) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventMembershipCreated,
		SchoolID:     oid(m.SchoolID),
		MembershipID: oid(m.ID),
		GoogleUID:    m.GoogleUID,
		Success:      true,
		Details:      map[string]string{"email": m.Email, "role": m.Role},
	}))
}

// MembershipEmailSynced logs a contact sync from the verified identity.
func (l *Logger) MembershipEmailSynced(ctx context.Context, r *http.Request, m models.Membership) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventMembershipEmailSynced,
		SchoolID:     oid(m.SchoolID),
		MembershipID: oid(m.ID),
		GoogleUID:    m.GoogleUID,
		Success:      true,
		Details:      map[string]string{"email": m.Email},
	}))
}

// MembershipUpdated logs an admin edit of role or staff link.
func (l *Logger) MembershipUpdated(ctx context.Context, r *http.Request, actor primitive.ObjectID, m models.Membership, changes map[string]string) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    audit.EventMembershipUpdated,
		SchoolID:     oid(m.SchoolID),
		MembershipID: oid(m.ID),
		ActorID:      oid(actor),
		Success:      true,
		Details:      changes,
	}))
}

// StaffDeleted logs a staff profile deletion and how many memberships it
// was unlinked from.
func (l *Logger) StaffDeleted(ctx context.Context, r *http.Request, actor, schoolID, staffID primitive.ObjectID, name string, unlinked int64) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStaffDeleted,
		SchoolID:  oid(schoolID),
		ActorID:   oid(actor),
		Success:   true,
		Details: map[string]string{
			"staff_id":             staffID.Hex(),
			"full_name":            name,
			"memberships_unlinked": strconv.FormatInt(unlinked, 10),
		},
	}))
}

// StudentDeleted logs a student record deletion.
func (l *Logger) StudentDeleted(ctx context.Context, r *http.Request, actor, schoolID, studentID primitive.ObjectID, name string) {
	l.Record(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStudentDeleted,
		SchoolID:  oid(schoolID),
		ActorID:   oid(actor),
		Success:   true,
		Details: map[string]string{
			"student_id": studentID.Hex(),
			"full_name":  name,
		},
	}))
}
