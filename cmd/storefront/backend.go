package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/docstore"
	"storefront/internal/handlers"
	"storefront/internal/store"
	"storefront/internal/store/memory"
)

// eventLog is both sides of the category audit log.
type eventLog interface {
	catalog.Recorder
	handlers.EventLister
}

// backend is one persistence backend with every role the app needs.
type backend struct {
	categories catalog.Repository
	users      handlers.UserRepository
	accounts   database.AccountSeeder
	events     eventLog
	close      func(context.Context) error
}

// openBackend connects to the backend selected by STORE_BACKEND and
// brings its schema up to date.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		users := store.NewUserStore(db)
		return &backend{
			categories: store.NewCategoryStore(db),
			users:      users,
			accounts:   store.Accounts{Shops: store.NewShopStore(db), Users: users},
			events:     store.NewEventStore(db),
			close:      func(context.Context) error { return db.Close() },
		}, nil

	case config.BackendMongo:
		client, db, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := docstore.EnsureIndexes(ctx, db); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		accounts := docstore.NewAccountStore(db)
		return &backend{
			categories: docstore.NewCategoryStore(db),
			users:      accounts,
			accounts:   accounts,
			events:     docstore.NewEventStore(db),
			close:      client.Disconnect,
		}, nil

	case config.BackendMemory:
		slog.Warn("using in-memory store, data is lost on exit")
		st := memory.New()
		return &backend{
			categories: st,
			users:      st,
			accounts:   st,
			events:     st,
			close:      func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// shutdown closes the backend, bounded by a fresh timeout so it still
// runs after the command context is cancelled.
func (b *backend) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.close(ctx); err != nil {
		slog.Warn("closing store failed", "error", err)
	}
}
