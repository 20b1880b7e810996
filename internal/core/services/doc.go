// Package services implements the driving port interfaces.
// Services contain the sourcing orchestration and call out to driven
// ports (GraphQL client, node registration, file attachment, tracing).
//
// The orchestration is layered:
//
//   - Paginate / FetchOnce: walk a cursor connection or run a query once
//   - NodeBuilder: map a raw entity to a node of a known kind
//   - Family orchestrators: shop policies, shop details, pages, menus
//   - SourcingService: runs the selected families concurrently and
//     reports API failures with their request context
package services
