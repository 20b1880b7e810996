package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/storefront-source/internal/adapters/driven/storage/memory"
	neo4jstore "github.com/custodia-labs/storefront-source/internal/adapters/driven/storage/neo4j"
	"github.com/custodia-labs/storefront-source/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Environment variables read when opening stores.
const (
	envDataDir       = "STOREFRONT_SOURCE_DATA_DIR"
	envNeo4jURI      = "NEO4J_URI"
	envNeo4jUser     = "NEO4J_USER"
	envNeo4jPassword = "NEO4J_PASSWORD"
	envNeo4jDatabase = "NEO4J_DATABASE"

	defaultNeo4jURI = "bolt://localhost:7687"
)

// openStore opens the node store of the given kind.
func openStore(ctx context.Context, kind string) (driven.NodeStore, error) {
	switch kind {
	case "memory":
		return memory.NewNodeStore(), nil
	case "sqlite":
		store, err := sqlite.NewStore(os.Getenv(envDataDir))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "neo4j":
		uri := os.Getenv(envNeo4jURI)
		if uri == "" {
			uri = defaultNeo4jURI
		}
		store, err := neo4jstore.New(ctx, neo4jstore.Config{
			URI:      uri,
			Username: os.Getenv(envNeo4jUser),
			Password: os.Getenv(envNeo4jPassword),
			Database: os.Getenv(envNeo4jDatabase),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: store %q (want memory, sqlite or neo4j)", domain.ErrUnsupportedType, kind)
	}
}
