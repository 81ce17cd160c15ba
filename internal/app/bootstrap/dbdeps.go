// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolsuite/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app. Everything
// here is built once in ConnectDB and released in Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Verifier checks Google ID tokens. Provider discovery happens at connect
	// time so a bad issuer fails startup.
	Verifier identity.Verifier

	// SignInLimiter is nil when signin_rate_limit is 0.
	SignInLimiter *ratelimit.SignInLimiter

	// Workers runs periodic cleanup jobs between Startup and Shutdown.
	Workers *workers.Runner
}
