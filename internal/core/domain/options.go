package domain

import (
	"fmt"
	"time"
)

// Option defaults.
const (
	// DefaultAPIVersion is the earliest storefront version exposing
	// the menu field on QueryRoot.
	DefaultAPIVersion = "2023-01"

	DefaultPaginationSize    = 250
	MaxPaginationSize        = 250
	DefaultRequestsPerSecond = 2.0
	DefaultRequestTimeout    = 30 * time.Second
)

// Options configure one sourcing run.
// Field tags match the plugin option keys supplied by the host.
type Options struct {
	// ShopName is the shop subdomain, or a full custom domain.
	ShopName string `mapstructure:"shopName"`

	// AccessToken is the storefront access token.
	AccessToken string `mapstructure:"accessToken"`

	// APIVersion pins the storefront API version.
	APIVersion string `mapstructure:"apiVersion"`

	// PaginationSize is the page size for paginated queries.
	PaginationSize int `mapstructure:"paginationSize"`

	// Connections selects the content families to source.
	Connections []string `mapstructure:"shopifyConnections"`

	// DownloadImages enables remote image attachment.
	DownloadImages bool `mapstructure:"downloadImages"`

	// Queries replaces any subset of the default query documents.
	Queries map[string]string `mapstructure:"shopifyQueries"`

	// Verbose enables per-family timing output.
	Verbose bool `mapstructure:"verbose"`

	// ShopDetails also sources the shop singleton under the shop family.
	ShopDetails bool `mapstructure:"shopDetails"`

	// RequestsPerSecond throttles outgoing API requests. Zero disables.
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`

	// RequestTimeout bounds a single HTTP request. Zero disables.
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`

	// ImageCacheDir is where downloaded images are written.
	ImageCacheDir string `mapstructure:"imageCacheDir"`
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() Options {
	return Options{
		APIVersion:        DefaultAPIVersion,
		PaginationSize:    DefaultPaginationSize,
		Connections:       []string{string(FamilyShop), string(FamilyContent), string(FamilyNavigation)},
		DownloadImages:    true,
		Queries:           map[string]string{},
		Verbose:           true,
		RequestsPerSecond: DefaultRequestsPerSecond,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// Validate checks required fields and ranges.
func (o *Options) Validate() error {
	if o.ShopName == "" || o.AccessToken == "" {
		return ErrMissingCredentials
	}
	if o.PaginationSize < 1 || o.PaginationSize > MaxPaginationSize {
		return fmt.Errorf("%w: paginationSize must be between 1 and %d, got %d",
			ErrInvalidInput, MaxPaginationSize, o.PaginationSize)
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requestsPerSecond must not be negative", ErrInvalidInput)
	}
	if _, err := o.Selector(); err != nil {
		return err
	}
	return nil
}

// Selector parses Connections. An empty list selects nothing; defaults
// come from DefaultOptions.
func (o *Options) Selector() (ConnectionSelector, error) {
	return NewConnectionSelector(o.Connections...)
}

// NodeTypes returns the node types a run with these options sources.
// Shop details belong to the shop family only when enabled.
func (o *Options) NodeTypes() ([]string, error) {
	sel, err := o.Selector()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range sel.NodeTypes() {
		if t == KindShopDetails.TypeName() && !o.ShopDetails {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
