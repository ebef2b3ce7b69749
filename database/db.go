// Package database owns the MongoDB connection used for the plan
// history archive.
package database

import (
	"context"
	"fmt"
	"time"

	"planmate/config"
	"planmate/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DatabaseName is the application database.
const DatabaseName = "planmate"

// MongoClient is the shared client, set by InitDB.
var MongoClient *mongo.Client

// InitDB connects to MongoDB and verifies the connection.
func InitDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.AppConfig.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoClient = client
	utils.GetLogger().Info("connected to MongoDB")
	return nil
}

// CloseDB disconnects the shared client.
func CloseDB(ctx context.Context) {
	if MongoClient == nil {
		return
	}
	if err := MongoClient.Disconnect(ctx); err != nil {
		utils.GetLogger().Warn("failed to disconnect MongoDB", zap.Error(err))
	}
}

// Collection returns a collection in the application database.
func Collection(name string) *mongo.Collection {
	return MongoClient.Database(DatabaseName).Collection(name)
}
