// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/schoolsuite/internal/app/store/oauthstate"
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/indexes"
	"github.com/dalemusser/schoolsuite/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolsuite/internal/app/system/tasks"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the other back-end dependencies.
// The client is created once here and disconnected in Shutdown.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool_size", appCfg.MongoMinPoolSize))

	verifier, err := newVerifier(ctx, appCfg, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("ID token verifier init failed", zap.Error(err))
		return DBDeps{}, err
	}

	jobs := []tasks.Job{tasks.OAuthStateCleanupJob(oauthstate.New(db), logger)}

	var limiter *ratelimit.SignInLimiter
	if appCfg.SignInRateLimit > 0 {
		limiter = ratelimit.NewSignInLimiter(appCfg.SignInRateLimit, appCfg.SignInRateWindow)
		jobs = append(jobs, tasks.SignInLimiterSweepJob(limiter, logger))
	} else {
		logger.Warn("sign-in rate limiting disabled")
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Verifier:      verifier,
		SignInLimiter: limiter,
		Workers:       workers.NewRunner(logger, jobs...),
	}, nil
}

// newVerifier discovers the ID token provider, or returns a verifier that
// refuses every credential when no Google client id is configured.
func newVerifier(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (identity.Verifier, error) {
	if appCfg.GoogleClientID == "" {
		logger.Warn("google_client_id not set; every sign-in will be rejected")
		return identity.RejectAll(), nil
	}
	return identity.NewOIDCVerifier(ctx, appCfg.GoogleIssuer, appCfg.GoogleClientID, logger)
}

// EnsureSchema creates or reconciles every collection's indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
