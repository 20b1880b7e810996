// Package connectors holds the remote API clients that back the driven
// GraphQL port. Each subpackage talks to one upstream service and
// returns a driven.ClientBuilder for the sourcing service.
package connectors
