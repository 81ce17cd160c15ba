// internal/app/features/errors/logger.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and writes the matching
// JSON error. Handlers share one instance.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

func (el *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
}

// LogServerError logs err at Error and writes a generic 500.
func (el *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	el.Log.Error(msg, el.fields(r, err)...)
	jsonresp.Internal(w, r)
}

// LogUnavailable logs err at Error and writes a generic 503.
func (el *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string, err error) {
	el.Log.Error(msg, el.fields(r, err)...)
	jsonresp.Unavailable(w, r)
}

// LogStoreError handles an error from a single-record lookup: a missing
// document becomes a 404 naming what, anything else a logged 500.
func (el *ErrorLogger) LogStoreError(w http.ResponseWriter, r *http.Request, what, msg string, err error) {
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.NotFound(w, r, what)
		return
	}
	el.LogServerError(w, r, msg, err)
}
