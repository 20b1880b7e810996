// Package domain defines the core entities of the storefront source.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Node: A unit registered into the host content graph
//   - NodeKind: The closed set of entity kinds that become nodes
//   - ContentFamily / ConnectionSelector: Which content a run sources
//   - QuerySet: Named GraphQL query documents
//   - Options: Run configuration supplied by the host
//   - RequestError: A failed GraphQL request with its request context
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
