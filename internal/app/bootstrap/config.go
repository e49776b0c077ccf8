// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/collabhub/internal/app/services/feed"
	"github.com/dalemusser/collabhub/internal/app/services/identity"
	"github.com/dalemusser/collabhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CollabHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COLLABHUB_MONGO_URI, COLLABHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "collabhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must match the sign-in service)"},
	{Name: "session_name", Default: "collabhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	{Name: "placeholder_avatar_url", Default: identity.DefaultPlaceholder, Desc: "Avatar shown when a member has none"},

	{Name: "audit_log_team", Default: "all", Desc: "Team approval/removal logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_content", Default: "all", Desc: "Publish/delete logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "feed_default_limit", Default: feed.DefaultLimit, Desc: "Feed size when no limit is requested"},

	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for lists and the feed"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env (WAFFLE_* for core, COLLABHUB_* for app) >
// config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COLLABHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		PlaceholderAvatarURL: appValues.String("placeholder_avatar_url"),

		AuditLogTeam:    appValues.String("audit_log_team"),
		AuditLogContent: appValues.String("audit_log_content"),

		FeedDefaultLimit: appValues.Int("feed_default_limit"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would otherwise fail on first
// use.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	for key, mode := range map[string]string{
		"audit_log_team":    appCfg.AuditLogTeam,
		"audit_log_content": appCfg.AuditLogContent,
	} {
		if !validAuditMode(mode) {
			return fmt.Errorf("%s: unknown mode %q (want all, db, log or off)", key, mode)
		}
	}
	if appCfg.FeedDefaultLimit < 1 || appCfg.FeedDefaultLimit > feed.MaxLimit {
		return fmt.Errorf("feed_default_limit must be between 1 and %d", feed.MaxLimit)
	}
	return nil
}

func validAuditMode(m string) bool {
	switch m {
	case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		return true
	}
	return false
}
