package driven

import (
	"context"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

// GraphQLClient executes GraphQL documents against the storefront API.
// Implementations must be safe for concurrent use.
type GraphQLClient interface {
	// Execute sends query with variables and returns the response's data
	// object. Transport failures and GraphQL errors are returned as
	// *domain.RequestError carrying the query and variables.
	Execute(ctx context.Context, query string, variables map[string]any) (map[string]any, error)
}

// ClientBuilder creates a GraphQLClient for the shop and credentials in opts.
type ClientBuilder func(opts domain.Options) (GraphQLClient, error)
