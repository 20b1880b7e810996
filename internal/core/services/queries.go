package services

import (
	"sort"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// ShopDetailsQuery fetches the shop singleton.
const ShopDetailsQuery = `
query GetShop {
  shop {
    description
    moneyFormat
    name
  }
}
`

// ShopPoliciesQuery fetches every policy slot of the shop.
// Unconfigured policies come back as null.
const ShopPoliciesQuery = `
query GetPolicies {
  shop {
    shippingPolicy {
      body
      handle
      id
      title
      url
    }
    privacyPolicy {
      body
      handle
      id
      title
      url
    }
    refundPolicy {
      body
      handle
      id
      title
      url
    }
    termsOfService {
      body
      handle
      id
      title
      url
    }
  }
}
`

// PagesQuery is paginated with $first and $after.
const PagesQuery = `
query GetPages($first: Int!, $after: String) {
  pages(first: $first, after: $after) {
    pageInfo {
      hasNextPage
    }
    edges {
      cursor
      node {
        id
        handle
        title
        body
        bodySummary
        updatedAt
        onlineStoreUrl
        metafields(first: 30) {
          edges {
            node {
              id
              key
              value
              description
            }
          }
        }
      }
    }
  }
}
`

// MenuQuery looks a menu up by $handle.
const MenuQuery = `
query GetMenu($handle: String!) {
  menu(handle: $handle) {
    id
    handle
    title
    items {
      title
      type
      url
      items {
        title
        type
        url
      }
    }
  }
}
`

// DefaultQueries returns the built-in query documents.
func DefaultQueries() domain.QuerySet {
	return domain.QuerySet{
		domain.QueryShopPolicies: ShopPoliciesQuery,
		domain.QueryShopDetails:  ShopDetailsQuery,
		domain.QueryPages:        PagesQuery,
		domain.QueryMenu:         MenuQuery,
	}
}

// ResolveQueries applies caller overrides on top of the defaults.
// Overrides for names no family uses are kept but logged.
func ResolveQueries(overrides map[string]string) domain.QuerySet {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !domain.QueryName(name).Known() {
			logger.Warn("query override %q does not match any known query", name)
		}
	}
	return DefaultQueries().Merge(overrides)
}
