package shopify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

const (
	shopifyBaseDomain = "myshopify.com"
	defaultProtocol   = "https"
	defaultEndpoint   = "graphql.json"
	storefrontAPIPath = "api"

	// TokenHeader carries the storefront access token.
	TokenHeader = "X-Shopify-Storefront-Access-Token"
)

// Config holds the connection settings for one shop.
type Config struct {
	// ShopName is the myshopify subdomain, or a full custom domain.
	ShopName string

	// AccessToken is the storefront access token.
	AccessToken string

	// APIVersion pins the storefront API version, e.g. "2023-01".
	APIVersion string

	// RequestsPerSecond throttles outgoing requests. Zero disables.
	RequestsPerSecond float64

	// Timeout bounds a single HTTP request. Zero disables.
	Timeout time.Duration

	// Endpoint overrides the computed endpoint URL. Used by tests.
	Endpoint string
}

// ConfigFromOptions extracts the connection settings from plugin options.
func ConfigFromOptions(opts domain.Options) Config {
	return Config{
		ShopName:          opts.ShopName,
		AccessToken:       opts.AccessToken,
		APIVersion:        opts.APIVersion,
		RequestsPerSecond: opts.RequestsPerSecond,
		Timeout:           opts.RequestTimeout,
	}
}

// Validate checks the settings needed to reach the API.
func (c Config) Validate() error {
	if c.ShopName == "" || c.AccessToken == "" {
		return domain.ErrMissingCredentials
	}
	if c.Endpoint != "" {
		if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
			return fmt.Errorf("%w: endpoint: %v", domain.ErrInvalidInput, err)
		}
	}
	return nil
}

// URL returns the GraphQL endpoint for the shop.
func (c Config) URL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return buildAPIEndpoint(c.ShopName, c.apiVersion())
}

func (c Config) apiVersion() string {
	if c.APIVersion == "" {
		return domain.DefaultAPIVersion
	}
	return c.APIVersion
}

func buildAPIEndpoint(shopName, apiVersion string) string {
	host := strings.TrimSuffix(strings.TrimSpace(shopName), "/")
	host = strings.TrimPrefix(host, defaultProtocol+"://")
	if !strings.Contains(host, ".") {
		host = host + "." + shopifyBaseDomain
	}
	return fmt.Sprintf("%s://%s/%s/%s/%s", defaultProtocol, host, storefrontAPIPath, apiVersion, defaultEndpoint)
}
