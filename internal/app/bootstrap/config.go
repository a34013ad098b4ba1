// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the field tasks
// service. These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: FIELDTASKS_MONGO_URI, FIELDTASKS_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fieldtasks", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "", Desc: "Session signing key (at least 32 bytes; blank generates a volatile dev key)"},
	{Name: "session_name", Default: "fieldtasks-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Photo object storage
	{Name: "storage_endpoint", Default: "localhost:9000", Desc: "S3-compatible object store endpoint"},
	{Name: "storage_access_key", Default: "", Desc: "Object store access key"},
	{Name: "storage_secret_key", Default: "", Desc: "Object store secret key"},
	{Name: "storage_bucket", Default: "fieldtasks-photos", Desc: "Bucket for assignment photos"},
	{Name: "storage_use_ssl", Default: false, Desc: "Connect to the object store over TLS"},
	{Name: "storage_public_url", Default: "", Desc: "Public base URL for stored photos (blank derives from endpoint)"},

	// Push notification delivery
	{Name: "push_enabled", Default: true, Desc: "Deliver push events to registered devices"},
	{Name: "push_endpoint", Default: "", Desc: "Expo-compatible push endpoint (blank means the public Expo service)"},
	{Name: "push_timeout", Default: "10s", Desc: "Per-send push round-trip bound"},

	// Bootstrap admin (created on startup when username and password are set)
	{Name: "bootstrap_admin_username", Default: "", Desc: "Username of the admin account to create on startup"},
	{Name: "bootstrap_admin_password", Default: "", Desc: "Password of the bootstrap admin account"},
	{Name: "bootstrap_admin_name", Default: "Administrador", Desc: "Full name of the bootstrap admin account"},
	{Name: "bootstrap_admin_team", Default: "Infraestrutura", Desc: "Team of the bootstrap admin account"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, FIELDTASKS_* for app),
// command-line flags, and merging with precedence:
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FIELDTASKS", appConfigKeys)
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

		StorageEndpoint:  appValues.String("storage_endpoint"),
		StorageAccessKey: appValues.String("storage_access_key"),
		StorageSecretKey: appValues.String("storage_secret_key"),
		StorageBucket:    appValues.String("storage_bucket"),
		StorageUseSSL:    appValues.Bool("storage_use_ssl"),
		StoragePublicURL: appValues.String("storage_public_url"),

		PushEnabled:  appValues.Bool("push_enabled"),
		PushEndpoint: appValues.String("push_endpoint"),
		PushTimeout:  appValues.Duration("push_timeout", 10*time.Second),

		BootstrapAdminUsername: appValues.String("bootstrap_admin_username"),
		BootstrapAdminPassword: appValues.String("bootstrap_admin_password"),
		BootstrapAdminName:     appValues.String("bootstrap_admin_name"),
		BootstrapAdminTeam:     appValues.String("bootstrap_admin_team"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked early, before attempting to connect,
// so misconfiguration fails startup with a clear message.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.BootstrapAdminUsername != "" && appCfg.BootstrapAdminPassword == "" {
		return fmt.Errorf("bootstrap_admin_username is set but bootstrap_admin_password is empty")
	}

	return nil
}
