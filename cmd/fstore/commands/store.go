package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/fstore/pkg/config"
	"github.com/marmos91/fstore/pkg/metadata/postgres"
	"github.com/marmos91/fstore/pkg/objectstore"
)

// openStore loads cfg and constructs the ObjectStore the maintenance
// subcommands (check/archive/prune) operate on directly, without going
// through the HTTP API.
func openStore(ctx context.Context) (*objectstore.ObjectStore, func(), error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, nil, err
	}

	meta, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to metadata store: %w", err)
	}

	store, err := objectstore.New(ctx, cfg.Home, meta, objectstore.Config{
		ArchiveDir: cfg.Archive.Dir,
		ArchiveS3:  cfg.ArchiveS3Config(),
		DumpTool:   cfg.Archive.DumpTool,
		DumpDatabase: objectstore.DumpDatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
		},
	})
	if err != nil {
		meta.Close()
		return nil, nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	return store, meta.Close, nil
}
