package app

import (
	"context"
	"fmt"

	"github.com/yungbote/learnpath-backend/internal/data/filestore"
	"github.com/yungbote/learnpath-backend/internal/data/graph"
	"github.com/yungbote/learnpath-backend/internal/data/pgstore"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/neo4jdb"
	"github.com/yungbote/learnpath-backend/internal/platform/pgdb"
	"github.com/yungbote/learnpath-backend/internal/services"
)

// Clients owns the connection behind the active graph source. Exactly one of
// Neo4j or Postgres is set, or neither for a file source.
type Clients struct {
	Kind     string
	Source   services.Source
	Neo4j    *neo4jdb.Client
	Postgres *pgdb.DB
}

func wireClients(ctx context.Context, log *logger.Logger, cfg SourceConfig) (*Clients, error) {
	log.Info("Wiring graph source...", "kind", cfg.Kind)

	switch cfg.Kind {
	case SourceNeo4j:
		client, err := neo4jdb.New(log, neo4jdb.Config{
			URI:         cfg.Neo4j.URI,
			User:        cfg.Neo4j.User,
			Password:    cfg.Neo4j.Password,
			Database:    cfg.Neo4j.Database,
			Timeout:     cfg.Neo4j.Timeout.Duration,
			MaxPoolSize: cfg.Neo4j.MaxPoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("init neo4j: %w", err)
		}
		return &Clients{Kind: cfg.Kind, Source: graph.NewSkillGraph(client, log), Neo4j: client}, nil

	case SourcePostgres:
		db, err := pgdb.Open(ctx, log, pgdb.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			Timeout:  cfg.Postgres.Timeout.Duration,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return &Clients{Kind: cfg.Kind, Source: pgstore.New(db.Gorm, log), Postgres: db}, nil

	case SourceFile:
		store, err := filestore.Load(cfg.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("init snapshot file: %w", err)
		}
		log.Info("snapshot file loaded", "path", store.Path())
		return &Clients{Kind: cfg.Kind, Source: store}, nil
	}
	return nil, fmt.Errorf("unsupported graph source %q", cfg.Kind)
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}
