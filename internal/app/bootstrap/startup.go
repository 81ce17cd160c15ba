// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It starts
// the background cleanup jobs, which run until Shutdown.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Workers != nil {
		deps.Workers.Start()
	}
	logger.Info("school suite ready",
		zap.String("env", coreCfg.Env),
		zap.String("workspace_domain", appCfg.WorkspaceDomain),
		zap.String("default_role", appCfg.DefaultRole),
		zap.Bool("google_code_flow", appCfg.GoogleClientSecret != "" && appCfg.BaseURL != ""))
	return nil
}
