// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	Events      *audit.Store
	Memberships *membershipstore.Store
}

// NewHandler constructs the audit log viewer bound to db.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		ErrLog:      errLog,
		Events:      audit.New(db),
		Memberships: membershipstore.New(db),
	}
}
