// internal/app/features/members/handler.go
package members

import (
	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	staffstore "github.com/dalemusser/schoolsuite/internal/app/store/staff"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for membership administration.
type Handler struct {
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
	Memberships *membershipstore.Store
	Staff       *staffstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
		Memberships: membershipstore.New(db),
		Staff:       staffstore.New(db),
	}
}
