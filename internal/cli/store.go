package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"linecheck/internal/adapter/boltstore"
	"linecheck/internal/adapter/mongostore"
	"linecheck/internal/logger"
	"linecheck/internal/port"
)

const (
	driverMongo = "mongo"
	driverBolt  = "bolt"
)

// openStore acquires the single store handle a command works with. Tests
// replace it with an in-memory store.
var openStore = openConfiguredStore

func openConfiguredStore(ctx context.Context) (port.LineStore, error) {
	cfg := GetConfig()

	switch storeDriver {
	case driverMongo:
		uri, err := cfg.MongoURI()
		if err != nil {
			return nil, err
		}
		return mongostore.Open(ctx, mongostore.Config{
			URI:         uri,
			Database:    cfg.Mongo.Database,
			Collection:  cfg.Mongo.Collection,
			VectorIndex: cfg.Mongo.VectorIndex,
			AppName:     "linecheck",
		})
	case driverBolt:
		path := resolveSnapshotPath()
		logger.FromContext(ctx).Debug("opening snapshot", zap.String("path", path))
		return boltstore.Open(path)
	default:
		return nil, fmt.Errorf("unknown driver %q (want %s or %s)", storeDriver, driverMongo, driverBolt)
	}
}

func resolveSnapshotPath() string {
	path := snapshotPath
	if path == "" {
		path = GetConfig().Snapshot.Path
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(GetRootDir(), path)
	}
	return path
}

// operationContext bounds one command's store calls by the configured timeout.
func operationContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), time.Duration(GetConfig().Mongo.TimeoutSec)*time.Second)
}

// withStore opens the store, runs fn, and always releases the handle.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st port.LineStore) error) error {
	ctx, cancel := operationContext(cmd)
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.FromContext(ctx).Warn("failed to close store", zap.Error(err))
		}
	}()

	return fn(ctx, st)
}
