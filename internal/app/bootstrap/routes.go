// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	healthfeature "github.com/gcnet/fieldtasks/internal/app/features/health"
	loginfeature "github.com/gcnet/fieldtasks/internal/app/features/login"
	logoutfeature "github.com/gcnet/fieldtasks/internal/app/features/logout"
	notificationsfeature "github.com/gcnet/fieldtasks/internal/app/features/notifications"
	profilefeature "github.com/gcnet/fieldtasks/internal/app/features/profile"
	tasksfeature "github.com/gcnet/fieldtasks/internal/app/features/tasks"
	assignmentstore "github.com/gcnet/fieldtasks/internal/app/store/assignments"
	notificationstore "github.com/gcnet/fieldtasks/internal/app/store/notifications"
	userstore "github.com/gcnet/fieldtasks/internal/app/store/users"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/app/system/photos"
	"github.com/gcnet/fieldtasks/internal/app/system/push"
	"github.com/gcnet/fieldtasks/internal/app/system/relay"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The stores, session manager, relay,
// and photo uploader are built here and shared by the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(deps.MongoDatabase)
	assignments := assignmentstore.New(deps.MongoDatabase)
	notifications := notificationstore.New(deps.MongoDatabase)

	verifier := auth.NewVerifier(users, logger)

	var pusher relay.Pusher
	if appCfg.PushEnabled {
		pusher = push.NewClient(appCfg.PushEndpoint, appCfg.PushTimeout)
	} else {
		pusher = push.Disabled{}
	}
	notifier := relay.New(notifications, users, pusher, logger)

	uploader := photos.NewUploader(deps.Photos, assignments, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(verifier, sessionMgr, users, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Assignments
	tasksHandler := tasksfeature.NewHandler(assignments, uploader, notifier, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler))

	// Notification inbox
	notificationsHandler := notificationsfeature.NewHandler(notifications, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

	// Account
	profileHandler := profilefeature.NewHandler(users, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	return r, nil
}
