package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// Fan-out limits for the pages family.
const (
	// pageWorkers bounds pages being registered while later pages are fetched.
	pageWorkers = 8

	// metafieldWorkers bounds metafield registrations per page.
	metafieldWorkers = 10
)

// pagesPath locates the pages connection in the pages query response.
var pagesPath = []string{"pages"}

// run holds everything one sourcing pass shares across families.
// Only actions is mutated concurrently; its safety is the host's concern.
type run struct {
	client   driven.GraphQLClient
	actions  driven.NodeActions
	builder  *NodeBuilder
	images   *imageAttacher
	tracer   driven.Tracer
	queries  domain.QuerySet
	pageSize int
	verbose  bool

	// pageProcessed is called once a page and all its metafields are registered.
	pageProcessed func(pageID string, metafields int)
}

// timed runs fn inside a span named after label when verbose is set.
func (r *run) timed(ctx context.Context, label string, fn func(context.Context) error) error {
	if !r.verbose || r.tracer == nil {
		return fn(ctx)
	}
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("fetched and processed %s nodes", label))
	err := fn(ctx)
	span.End(err)
	return err
}

// register maps an entity, attaches its images and creates the node.
func (r *run) register(ctx context.Context, kind domain.NodeKind, entity map[string]any) (*domain.Node, error) {
	node, err := r.builder.Build(kind, entity)
	if err != nil {
		return nil, err
	}
	if _, err := r.images.attach(ctx, node.Fields); err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, node.StringField(sourceIDField), err)
	}
	if err := r.actions.CreateNode(ctx, node); err != nil {
		return nil, fmt.Errorf("create %s node: %w", kind, err)
	}
	return node, nil
}

// shopPolicies registers one node per configured policy slot.
func (r *run) shopPolicies(ctx context.Context) error {
	return r.timed(ctx, domain.KindShopPolicy.String(), func(ctx context.Context) error {
		data, err := FetchOnce(ctx, r.client, r.queries.Get(domain.QueryShopPolicies), nil)
		if err != nil {
			return err
		}

		shop, ok := data["shop"].(map[string]any)
		if !ok {
			return fmt.Errorf("shop policies: %w: shop", domain.ErrConnectionNotFound)
		}

		slots := make([]string, 0, len(shop))
		for slot := range shop {
			slots = append(slots, slot)
		}
		sort.Strings(slots)

		for _, slot := range slots {
			policy, ok := shop[slot].(map[string]any)
			if !ok {
				// Policy not configured on the shop.
				continue
			}
			if _, err := r.register(ctx, domain.KindShopPolicy, policy); err != nil {
				return fmt.Errorf("shop policy %s: %w", slot, err)
			}
		}
		return nil
	})
}

// shopDetails registers the shop singleton.
func (r *run) shopDetails(ctx context.Context) error {
	return r.timed(ctx, domain.KindShopDetails.String(), func(ctx context.Context) error {
		data, err := FetchOnce(ctx, r.client, r.queries.Get(domain.QueryShopDetails), nil)
		if err != nil {
			return err
		}

		shop, ok := data["shop"].(map[string]any)
		if !ok {
			return fmt.Errorf("shop details: %w: shop", domain.ErrConnectionNotFound)
		}
		_, err = r.register(ctx, domain.KindShopDetails, shop)
		return err
	})
}

// menus registers one node per fixed handle that resolves to a menu.
func (r *run) menus(ctx context.Context) error {
	return r.timed(ctx, string(domain.FamilyNavigation), func(ctx context.Context) error {
		query := r.queries.Get(domain.QueryMenu)
		for _, handle := range domain.MenuHandles {
			data, err := FetchOnce(ctx, r.client, query, map[string]any{"handle": handle})
			if err != nil {
				return err
			}

			menu, ok := data["menu"].(map[string]any)
			if !ok {
				logger.Debug("menu %q not found, skipping", handle)
				continue
			}
			if _, err := r.register(ctx, domain.KindMenu, menu); err != nil {
				return fmt.Errorf("menu %s: %w", handle, err)
			}
		}
		return nil
	})
}

// pages walks the pages connection and registers every page with its
// metafields. Pages are handed to workers as they arrive, so registration
// overlaps with fetching the next page of results. A page counts as
// processed only once all of its metafields are registered.
func (r *run) pages(ctx context.Context) error {
	return r.timed(ctx, domain.KindPage.String(), func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pageWorkers)

		for page, err := range Paginate(gctx, r.client, pagesPath, r.queries.Get(domain.QueryPages), r.pageSize) {
			if err != nil {
				// Let in-flight pages finish; a worker error caused the
				// cancellation, so it wins.
				if werr := g.Wait(); werr != nil {
					return werr
				}
				return err
			}
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				return r.page(gctx, page)
			})
		}
		return g.Wait()
	})
}

// page registers a page node and fans out over its metafield edges.
func (r *run) page(ctx context.Context, entity map[string]any) error {
	node, err := r.register(ctx, domain.KindPage, entity)
	if err != nil {
		return err
	}

	count := 0
	if mf, ok := entity["metafields"].(map[string]any); ok {
		edges, err := decodeEdges(mf["edges"])
		if err != nil {
			return fmt.Errorf("page %s metafields: %w", node.StringField(sourceIDField), err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(metafieldWorkers)
		for _, e := range edges {
			g.Go(func() error {
				_, err := r.register(gctx, domain.KindPageMetafield, e.node)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("page %s metafields: %w", node.StringField(sourceIDField), err)
		}
		count = len(edges)
	}

	logger.Debug("processed page %s (%d metafields)", node.StringField("handle"), count)
	if r.pageProcessed != nil {
		r.pageProcessed(node.ID, count)
	}
	return nil
}
