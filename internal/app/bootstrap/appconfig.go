// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging level, CORS, body limits); AppConfig is everything specific to
// the field tasks service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: fieldtasks-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Photo object storage (S3-compatible, e.g. MinIO)
	StorageEndpoint  string // Object store endpoint (host:port)
	StorageAccessKey string // Access key
	StorageSecretKey string // Secret key
	StorageBucket    string // Bucket for assignment photos
	StorageUseSSL    bool   // Connect to the object store over TLS
	StoragePublicURL string // Public base URL for serving stored photos

	// Push notification delivery
	PushEnabled  bool          // Deliver push events (inbox records are always written)
	PushEndpoint string        // Expo-compatible push endpoint (blank means the public Expo service)
	PushTimeout  time.Duration // Per-send round-trip bound

	// Bootstrap admin account, created on startup when both values are
	// set. Credentials come from the environment, never from source.
	BootstrapAdminUsername string
	BootstrapAdminPassword string
	BootstrapAdminName     string
	BootstrapAdminTeam     string
}
