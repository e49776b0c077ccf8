// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds CollabHub-specific configuration, loaded in LoadConfig.
//
// WAFFLE's CoreConfig covers ports, TLS, log level and request limits;
// everything the engagement service itself needs lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // e.g. mongodb://localhost:27017
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie (read-only here; sessions are issued by the sign-in service)
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// Identity fallback shown when neither profile nor member has an avatar
	PlaceholderAvatarURL string

	// Audit logging: "all" (db+log), "db", "log" or "off"
	AuditLogTeam    string
	AuditLogContent string

	// Feed size when the client does not pass ?limit=
	FeedDefaultLimit int

	// Database deadlines applied by handlers (zero keeps the built-in value)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
