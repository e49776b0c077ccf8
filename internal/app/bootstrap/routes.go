// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	announcementsfeature "github.com/dalemusser/collabhub/internal/app/features/announcements"
	feedfeature "github.com/dalemusser/collabhub/internal/app/features/feed"
	healthfeature "github.com/dalemusser/collabhub/internal/app/features/health"
	membersfeature "github.com/dalemusser/collabhub/internal/app/features/members"
	updatesfeature "github.com/dalemusser/collabhub/internal/app/features/updates"
	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/services/feed"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/services/teamflow"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	contentstore "github.com/dalemusser/collabhub/internal/app/store/content"
	memberstore "github.com/dalemusser/collabhub/internal/app/store/members"
	profilestore "github.com/dalemusser/collabhub/internal/app/store/profiles"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. Stores are built over the shared database handle,
// services over the stores, and each feature is mounted under its own path.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	return newRouter(appCfg, deps, sessionMgr, logger), nil
}

func newRouter(appCfg AppConfig, deps DBDeps, sessionMgr *auth.SessionManager, logger *zap.Logger) chi.Router {
	db := deps.MongoDatabase

	// Stores
	content := contentstore.New(db)
	members := memberstore.New(db)
	profiles := profilestore.New(db)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Team:    appCfg.AuditLogTeam,
		Content: appCfg.AuditLogContent,
	})

	// Services
	resolver := identity.New(members, profiles, appCfg.PlaceholderAvatarURL, logger)
	eng := engagement.New(content, members, resolver, auditLog, logger)
	team := teamflow.New(content, members, resolver, auditLog, logger)
	feedSvc := feed.New(content, resolver, logger, appCfg.FeedDefaultLimit)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	// Loads SessionUser into context when the cookie says the member is
	// signed in; handlers read it through authz.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	feedHandler := feedfeature.NewHandler(feedSvc, logger)
	r.Mount("/feed", feedfeature.Routes(feedHandler))

	updatesHandler := updatesfeature.NewHandler(eng, logger)
	r.Mount("/updates", updatesfeature.Routes(updatesHandler))

	announcementsHandler := announcementsfeature.NewHandler(eng, team, logger)
	r.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

	membersHandler := membersfeature.NewHandler(members, profiles, resolver, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler))

	return r
}
