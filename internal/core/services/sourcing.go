package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driving"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// Ensure SourcingService implements the interface.
var _ driving.Sourcer = (*SourcingService)(nil)

// SourcingService coordinates one sourcing run across content families.
type SourcingService struct {
	clients  driven.ClientBuilder
	actions  driven.NodeActions
	helpers  driven.NodeHelpers
	files    driven.FileAttacher
	tracer   driven.Tracer
	reporter driven.Reporter

	// pageProcessed is forwarded to each run. Used by tests.
	pageProcessed func(pageID string, metafields int)
}

// NewSourcingService creates a new sourcing service.
// files, tracer and reporter are optional and may be nil: without files
// image fields are left untouched, without tracer no timings are
// recorded and without reporter failures are only logged.
func NewSourcingService(
	clients driven.ClientBuilder,
	actions driven.NodeActions,
	helpers driven.NodeHelpers,
	files driven.FileAttacher,
	tracer driven.Tracer,
	reporter driven.Reporter,
) *SourcingService {
	return &SourcingService{
		clients:  clients,
		actions:  actions,
		helpers:  helpers,
		files:    files,
		tracer:   tracer,
		reporter: reporter,
	}
}

// SourceNodes runs the families selected in opts concurrently and waits
// for all of them. A failing family does not stop the others, but the
// run fails once any of them does, with every family error joined. Each
// API failure in the result is reported with its query and the joined
// error is wrapped in domain.ErrSourcingFailed; when none are API
// failures the joined error is returned as is. Nodes registered before a failure stay registered,
// and the returned report counts them.
func (s *SourcingService) SourceNodes(ctx context.Context, opts domain.Options) (*domain.SourceReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	selector, err := opts.Selector()
	if err != nil {
		return nil, err
	}
	if s.clients == nil {
		return nil, errors.New("graphql client builder not configured")
	}
	if s.actions == nil || s.helpers == nil {
		return nil, errors.New("node actions not configured")
	}
	client, err := s.clients(opts)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	counter := newCountingActions(s.actions)
	r := &run{
		client:        client,
		actions:       counter,
		builder:       NewNodeBuilder(s.helpers),
		tracer:        s.tracer,
		queries:       ResolveQueries(opts.Queries),
		pageSize:      opts.PaginationSize,
		verbose:       opts.Verbose,
		pageProcessed: s.pageProcessed,
	}
	if opts.DownloadImages && s.files != nil {
		r.images = &imageAttacher{files: s.files}
	}

	report := &domain.SourceReport{
		Families:  selector.Families(),
		StartedAt: time.Now(),
	}

	s.info("starting to fetch data from Shopify")

	var span driven.Span
	if s.tracer != nil {
		_, span = s.tracer.Start(ctx, "finished fetching data from Shopify")
	}

	// Families run to completion independently; every failure is kept.
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	goFamily := func(fetch func(context.Context) error) {
		g.Go(func() error {
			if err := fetch(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	for _, family := range report.Families {
		switch family {
		case domain.FamilyShop:
			goFamily(r.shopPolicies)
			if opts.ShopDetails {
				goFamily(r.shopDetails)
			}
		case domain.FamilyContent:
			goFamily(r.pages)
		case domain.FamilyNavigation:
			goFamily(r.menus)
		}
	}

	_ = g.Wait()
	err = errors.Join(errs...)
	if span != nil {
		span.End(err)
	}

	report.Nodes = counter.counts()
	report.Duration = time.Since(report.StartedAt)

	if err != nil {
		reqErrs := domain.RequestErrors(err)
		if len(reqErrs) == 0 {
			return report, err
		}
		logger.Error("an error occurred while sourcing data")
		if s.reporter != nil {
			for _, reqErr := range reqErrs {
				s.reporter.RequestFailed(reqErr)
			}
		}
		return report, fmt.Errorf("%w: %w", domain.ErrSourcingFailed, err)
	}

	logger.Info("sourced %d nodes in %s", report.Total(), report.Duration.Round(time.Millisecond))
	return report, nil
}

func (s *SourcingService) info(msg string) {
	if s.reporter != nil {
		s.reporter.Info(msg)
		return
	}
	logger.Info("%s", msg)
}

// countingActions counts successful node creations by type.
type countingActions struct {
	driven.NodeActions

	mu     sync.Mutex
	byType map[string]int
}

func newCountingActions(next driven.NodeActions) *countingActions {
	return &countingActions{NodeActions: next, byType: make(map[string]int)}
}

// CreateNode forwards to the wrapped actions and counts on success.
func (c *countingActions) CreateNode(ctx context.Context, node *domain.Node) error {
	if err := c.NodeActions.CreateNode(ctx, node); err != nil {
		return err
	}
	c.mu.Lock()
	c.byType[node.Internal.Type]++
	c.mu.Unlock()
	return nil
}

func (c *countingActions) counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.byType))
	for k, v := range c.byType {
		out[k] = v
	}
	return out
}
