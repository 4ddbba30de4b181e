package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/natours/natours-api/internal/config"
	"github.com/natours/natours-api/internal/db"
)

// Open connects the store selected by cfg.Driver and prepares its schema.
// The returned func releases the connection.
func Open(ctx context.Context, cfg config.Store, logger *slog.Logger) (Store, func(context.Context) error, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		gdb, err := db.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		store := NewGormStore(gdb)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close(gdb)
			return nil, nil, err
		}
		return store, func(context.Context) error { return db.Close(gdb) }, nil

	case config.StoreDriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			return nil, nil, err
		}
		store := NewMongoStore(client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, client.Disconnect, nil

	case config.StoreDriverMemory:
		logger.Warn("using in-memory user store, data is lost on restart")
		return NewMemStore(), func(context.Context) error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
