package cmd

import (
	"context"
	"fmt"

	"github.com/isdelr/voting-be/internal/config"
	"github.com/isdelr/voting-be/internal/database"
	"github.com/isdelr/voting-be/internal/mongostore"
	"github.com/isdelr/voting-be/internal/services"
	"github.com/rs/zerolog/log"
)

// stores bundles the record stores selected by STORE_DRIVER.
type stores struct {
	candidates services.CandidateServiceProvider
	users      services.UserServiceProvider
	events     services.EventServiceProvider
	close      func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("Connected to MongoDB")
		return &stores{
			candidates: mongostore.NewCandidateStore(db),
			users:      mongostore.NewUserStore(db),
			events:     mongostore.NewEventStore(db),
			close:      func() error { return db.Client().Disconnect(context.Background()) },
		}, nil

	case config.DriverSQLite:
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.DatabasePath).Msg("Opened SQLite database")
		return &stores{
			candidates: services.NewCandidateService(db),
			users:      services.NewUserService(db),
			events:     services.NewEventService(db),
			close:      db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
