// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - GraphQLClient: Executes storefront GraphQL queries
//   - NodeActions: Registers and touches nodes in the content graph
//   - NodeHelpers: Deterministic node ids and content digests
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - FileAttacher: Downloads remote images and registers file nodes.
//     Without it, image fields are left as returned by the API.
//   - Tracer: Start/stop spans around each content family.
//   - Reporter: Operator-facing diagnostics for failed requests.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or service package
package driven
