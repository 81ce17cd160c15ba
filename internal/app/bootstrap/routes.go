// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/schoolsuite/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/schoolsuite/internal/app/features/authgoogle"
	authsessionfeature "github.com/dalemusser/schoolsuite/internal/app/features/authsession"
	dashboardfeature "github.com/dalemusser/schoolsuite/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/schoolsuite/internal/app/features/events"
	financesfeature "github.com/dalemusser/schoolsuite/internal/app/features/finances"
	healthfeature "github.com/dalemusser/schoolsuite/internal/app/features/health"
	homefeature "github.com/dalemusser/schoolsuite/internal/app/features/home"
	libraryfeature "github.com/dalemusser/schoolsuite/internal/app/features/library"
	membersfeature "github.com/dalemusser/schoolsuite/internal/app/features/members"
	payrollfeature "github.com/dalemusser/schoolsuite/internal/app/features/payroll"
	performancefeature "github.com/dalemusser/schoolsuite/internal/app/features/performance"
	questionsfeature "github.com/dalemusser/schoolsuite/internal/app/features/questions"
	stafffeature "github.com/dalemusser/schoolsuite/internal/app/features/staff"
	studentsfeature "github.com/dalemusser/schoolsuite/internal/app/features/students"
	auditstore "github.com/dalemusser/schoolsuite/internal/app/store/audit"
	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	"github.com/dalemusser/schoolsuite/internal/app/store/oauthstate"
	schoolstore "github.com/dalemusser/schoolsuite/internal/app/store/schools"
	staffstore "github.com/dalemusser/schoolsuite/internal/app/store/staff"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/metrics"
	"github.com/dalemusser/schoolsuite/internal/app/system/tenancy"
	"github.com/dalemusser/schoolsuite/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It builds the shared services (session manager,
// audit logger, metrics, tenancy resolver) and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Metrics on a private registry, with the usual process collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		logger.Error("metrics init failed", zap.Error(err))
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	sessionMgr, err := auth.NewSessionManager(auth.Config{
		HashKey:  []byte(appCfg.SessionKey),
		BlockKey: []byte(appCfg.SessionBlockKey),
		Name:     appCfg.SessionName,
		Domain:   appCfg.SessionDomain,
		MaxAge:   appCfg.SessionMaxAge,
		Secure:   coreCfg.Env == "prod",
	}, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Every request reloads its membership, so role changes and removals
	// take effect immediately.
	sessionMgr.SetLoader(membershipstore.NewLoader(db))
	sessionMgr.SetMetrics(m)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLogger := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	tx := txn.New(deps.MongoClient, logger)

	resolver := tenancy.NewResolver(
		schoolstore.New(db),
		membershipstore.New(db),
		staffstore.New(db),
		tx,
		tenancy.Options{WorkspaceDomain: appCfg.WorkspaceDomain, DefaultRole: appCfg.DefaultRole},
		logger,
	)

	googleHandler := authgooglefeature.NewHandler(sessionMgr, errLog, auditLogger, m,
		oauthstate.New(db), deps.Verifier, resolver,
		authgooglefeature.Options{
			ClientID:        appCfg.GoogleClientID,
			ClientSecret:    appCfg.GoogleClientSecret,
			BaseURL:         appCfg.BaseURL,
			WorkspaceDomain: appCfg.WorkspaceDomain,
		}, logger)

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// Global auth middleware: loads the Session into context when the cookie
	// is valid. Handlers read it via auth.CurrentSession(r).
	r.Use(sessionMgr.LoadSession)

	// Set before mounting so sub-routers inherit the JSON fallbacks.
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Operational endpoints
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Error endpoints
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Sign-in
	sessionHandler := authsessionfeature.NewHandler(sessionMgr, deps.Verifier, resolver,
		deps.SignInLimiter, auditLogger, m, errLog, logger)
	r.Mount("/auth/session", authsessionfeature.Routes(sessionHandler))
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Dashboard
	dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// School records
	studentsHandler := studentsfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/students", studentsfeature.Routes(studentsHandler, sessionMgr))

	staffHandler := stafffeature.NewHandler(db, tx, errLog, auditLogger, logger)
	r.Mount("/staff", stafffeature.Routes(staffHandler, sessionMgr))

	financesHandler := financesfeature.NewHandler(db, errLog, logger)
	r.Mount("/finances", financesfeature.Routes(financesHandler, sessionMgr))

	payrollHandler := payrollfeature.NewHandler(db, errLog, logger)
	r.Mount("/payroll", payrollfeature.Routes(payrollHandler, sessionMgr))

	eventsHandler := eventsfeature.NewHandler(db, errLog, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler, sessionMgr))

	libraryHandler := libraryfeature.NewHandler(db, errLog, logger)
	r.Mount("/library", libraryfeature.Routes(libraryHandler, sessionMgr))

	questionsHandler := questionsfeature.NewHandler(db, errLog, logger)
	r.Mount("/questions", questionsfeature.Routes(questionsHandler, sessionMgr))

	performanceHandler := performancefeature.NewHandler(db, errLog, logger)
	r.Mount("/performance", performancefeature.Routes(performanceHandler, sessionMgr))

	// School administration
	membersHandler := membersfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Public landing and sign-in bootstrap. Mounted last at "/".
	homeHandler := homefeature.NewHandler(appCfg.GoogleClientID, appCfg.WorkspaceDomain,
		googleHandler.IsConfigured(), logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	return r, nil
}
