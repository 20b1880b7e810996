package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/storefront-source/internal/adapters/driven/nodeid"
	"github.com/custodia-labs/storefront-source/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// --- Mock implementations ---

type clientCall struct {
	query     string
	variables map[string]any
}

// fakeClient implements driven.GraphQLClient with a scripted responder.
type fakeClient struct {
	mu      sync.Mutex
	calls   []clientCall
	respond func(query string, variables map[string]any) (map[string]any, error)
}

func (c *fakeClient) Execute(_ context.Context, query string, variables map[string]any) (map[string]any, error) {
	c.mu.Lock()
	c.calls = append(c.calls, clientCall{query: query, variables: maps.Clone(variables)})
	c.mu.Unlock()
	return c.respond(query, variables)
}

func (c *fakeClient) callsFor(query string) []clientCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []clientCall
	for _, call := range c.calls {
		if call.query == query {
			out = append(out, call)
		}
	}
	return out
}

func (c *fakeClient) builder() driven.ClientBuilder {
	return func(domain.Options) (driven.GraphQLClient, error) {
		return c, nil
	}
}

// mockTracer implements driven.Tracer and records span names.
type mockTracer struct {
	mu    sync.Mutex
	names []string
	ended map[string]error
}

func newMockTracer() *mockTracer {
	return &mockTracer{ended: make(map[string]error)}
}

func (m *mockTracer) Start(ctx context.Context, name string) (context.Context, driven.Span) {
	m.mu.Lock()
	m.names = append(m.names, name)
	m.mu.Unlock()
	return ctx, &mockSpan{tracer: m, name: name}
}

func (m *mockTracer) spans() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.names...)
}

type mockSpan struct {
	tracer *mockTracer
	name   string
}

func (s *mockSpan) End(err error) {
	s.tracer.mu.Lock()
	s.tracer.ended[s.name] = err
	s.tracer.mu.Unlock()
}

// mockReporter implements driven.Reporter.
type mockReporter struct {
	mu       sync.Mutex
	infos    []string
	failures []*domain.RequestError
}

func (m *mockReporter) Info(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockReporter) RequestFailed(err *domain.RequestError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, err)
}

// mockFiles implements driven.FileAttacher.
type mockFiles struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (m *mockFiles) Attach(_ context.Context, url string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	return "file-" + url, nil
}

// failingActions fails CreateNode for one node type.
type failingActions struct {
	driven.NodeActions
	nodeType string
}

func (f *failingActions) CreateNode(ctx context.Context, node *domain.Node) error {
	if node.Internal.Type == f.nodeType {
		return errors.New("store unavailable")
	}
	return f.NodeActions.CreateNode(ctx, node)
}

// --- Fixtures ---

const policiesFixture = `{
  "shop": {
    "privacyPolicy": {"id": "gid://shopify/ShopPolicy/1", "handle": "privacy-policy", "title": "Privacy Policy", "body": "<p>privacy</p>", "url": "https://shop.test/policies/privacy-policy"},
    "refundPolicy": {"id": "gid://shopify/ShopPolicy/2", "handle": "refund-policy", "title": "Refund Policy", "body": "<p>refunds</p>", "url": "https://shop.test/policies/refund-policy"},
    "shippingPolicy": {"id": "gid://shopify/ShopPolicy/3", "handle": "shipping-policy", "title": "Shipping Policy", "body": "<p>shipping</p>", "url": "https://shop.test/policies/shipping-policy"},
    "termsOfService": {"id": "gid://shopify/ShopPolicy/4", "handle": "terms-of-service", "title": "Terms of Service", "body": "<p>terms</p>", "url": "https://shop.test/policies/terms-of-service"}
  }
}`

const policiesNoRefundFixture = `{
  "shop": {
    "privacyPolicy": {"id": "gid://shopify/ShopPolicy/1", "handle": "privacy-policy", "title": "Privacy Policy"},
    "refundPolicy": null,
    "shippingPolicy": {"id": "gid://shopify/ShopPolicy/3", "handle": "shipping-policy", "title": "Shipping Policy"},
    "termsOfService": {"id": "gid://shopify/ShopPolicy/4", "handle": "terms-of-service", "title": "Terms of Service"}
  }
}`

const shopDetailsFixture = `{
  "shop": {"name": "Test Shop", "description": "A test shop", "moneyFormat": "${{amount}}"}
}`

const pagesFirstFixture = `{
  "pages": {
    "pageInfo": {"hasNextPage": true},
    "edges": [
      {"cursor": "c1", "node": {
        "id": "gid://shopify/Page/1", "handle": "about", "title": "About",
        "metafields": {"edges": [
          {"node": {"id": "gid://shopify/Metafield/11", "key": "subtitle", "value": "Who we are"}},
          {"node": {"id": "gid://shopify/Metafield/12", "key": "hero", "value": "hero.jpg"}},
          {"node": {"id": "gid://shopify/Metafield/13", "key": "layout", "value": "wide"}}
        ]}
      }},
      {"cursor": "c2", "node": {
        "id": "gid://shopify/Page/2", "handle": "contact", "title": "Contact",
        "metafields": {"edges": []}
      }}
    ]
  }
}`

const pagesSecondFixture = `{
  "pages": {
    "pageInfo": {"hasNextPage": false},
    "edges": [
      {"cursor": "c3", "node": {
        "id": "gid://shopify/Page/3", "handle": "faq", "title": "FAQ",
        "image": {"url": "https://cdn.shop.test/faq.png", "altText": "FAQ"},
        "metafields": {"edges": [
          {"node": {"id": "gid://shopify/Metafield/31", "key": "subtitle", "value": "Questions"}}
        ]}
      }}
    ]
  }
}`

const mainMenuFixture = `{
  "menu": {"id": "gid://shopify/Menu/1", "handle": "main-menu", "title": "Main menu",
    "items": [{"title": "Home", "type": "FRONTPAGE", "url": "/"}]}
}`

const policyMenuFixture = `{
  "menu": {"id": "gid://shopify/Menu/3", "handle": "policy-menu", "title": "Policies", "items": []}
}`

func decodeFixture(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

// storefront scripts the default queries. A query listed in fail returns
// that error instead of data.
type storefront struct {
	t        *testing.T
	policies string
	pages    map[string]string
	menus    map[string]string
	fail     map[string]error
}

func newStorefront(t *testing.T) *storefront {
	return &storefront{
		t:        t,
		policies: policiesFixture,
		pages: map[string]string{
			"":   pagesFirstFixture,
			"c2": pagesSecondFixture,
		},
		menus: map[string]string{
			"main-menu":   mainMenuFixture,
			"policy-menu": policyMenuFixture,
		},
		fail: map[string]error{},
	}
}

func (s *storefront) client() *fakeClient {
	return &fakeClient{respond: s.respond}
}

func (s *storefront) respond(query string, variables map[string]any) (map[string]any, error) {
	if err, ok := s.fail[query]; ok {
		return nil, err
	}
	switch query {
	case ShopPoliciesQuery:
		return decodeFixture(s.t, s.policies), nil
	case ShopDetailsQuery:
		return decodeFixture(s.t, shopDetailsFixture), nil
	case PagesQuery:
		after, _ := variables["after"].(string)
		raw, ok := s.pages[after]
		if !ok {
			return nil, fmt.Errorf("no page after %q", after)
		}
		return decodeFixture(s.t, raw), nil
	case MenuQuery:
		handle, _ := variables["handle"].(string)
		raw, ok := s.menus[handle]
		if !ok {
			return map[string]any{"menu": nil}, nil
		}
		return decodeFixture(s.t, raw), nil
	default:
		return nil, fmt.Errorf("unexpected query: %q", query)
	}
}

func testOptions() domain.Options {
	opts := domain.DefaultOptions()
	opts.ShopName = "test-shop"
	opts.AccessToken = "token"
	return opts
}

func newTestService(client *fakeClient, store *memory.NodeStore) *SourcingService {
	return NewSourcingService(client.builder(), store, nodeid.New(domain.Owner), nil, nil, nil)
}
