// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/gcnet/fieldtasks/internal/app/store/users"
	"github.com/gcnet/fieldtasks/internal/app/system/photostore"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ConnectDB establishes the MongoDB connection and object store client.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("pinging MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	photos, err := photostore.New(photostore.Config{
		Endpoint:  appCfg.StorageEndpoint,
		AccessKey: appCfg.StorageAccessKey,
		SecretKey: appCfg.StorageSecretKey,
		Bucket:    appCfg.StorageBucket,
		UseSSL:    appCfg.StorageUseSSL,
		PublicURL: appCfg.StoragePublicURL,
	}, logger)
	if err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, err
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Photos:        photos,
	}, nil
}

// EnsureSchema creates the indexes the stores rely on, makes sure the
// photo bucket exists, and creates the bootstrap admin when configured.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users index: %w", err)
	}

	_, err = db.Collection("task_assignments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating task_assignments index: %w", err)
	}

	_, err = db.Collection("notifications").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating notifications indexes: %w", err)
	}

	if err := deps.Photos.EnsureBucket(ctx); err != nil {
		return err
	}

	return ensureBootstrapAdmin(ctx, appCfg, deps, logger)
}

// ensureBootstrapAdmin creates the configured admin account if it does
// not exist yet. Credentials always come from configuration; nothing is
// seeded when they are absent.
func ensureBootstrapAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.BootstrapAdminUsername == "" {
		return nil
	}

	users := userstore.New(deps.MongoDatabase)
	hash, err := bcrypt.GenerateFromPassword([]byte(appCfg.BootstrapAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing bootstrap admin password: %w", err)
	}

	_, err = users.Create(ctx, models.User{
		Username:     appCfg.BootstrapAdminUsername,
		PasswordHash: string(hash),
		FullName:     appCfg.BootstrapAdminName,
		Team:         appCfg.BootstrapAdminTeam,
		Role:         "admin",
		Active:       true,
	})
	if errors.Is(err, userstore.ErrDuplicateUsername) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}

	logger.Info("created bootstrap admin account",
		zap.String("username", appCfg.BootstrapAdminUsername))
	return nil
}
