// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/gcnet/fieldtasks/internal/app/system/photostore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Photos        *photostore.Store
}
