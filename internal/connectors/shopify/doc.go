// Package shopify implements a GraphQL client for the Shopify Storefront API.
//
// # Endpoint
//
// Requests are sent as HTTP POST to
//
//	https://{shop}.myshopify.com/api/{version}/graphql.json
//
// A shop name containing a dot is treated as a custom domain and used as
// the host unchanged.
//
// # Authentication
//
// The storefront access token is sent in the
// X-Shopify-Storefront-Access-Token header on every request.
//
// # Rate Limiting
//
// The transport throttles requests with a token bucket (requestsPerSecond
// in the plugin options). When the API answers 429 or 430 the failure is
// returned as is, and later requests wait until the Retry-After time has
// passed. Failed requests are never retried.
//
// # Errors
//
// Every failure, whether transport, HTTP status or GraphQL errors array,
// is returned as a [domain.RequestError] carrying the query and variables.
// A response carrying both data and errors is treated as a failure.
package shopify
