// Command storefront-source sources Shopify storefront content into a
// node store.
package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/storefront-source/internal/adapters/driven/files"
	"github.com/custodia-labs/storefront-source/internal/adapters/driven/nodeid"
	"github.com/custodia-labs/storefront-source/internal/adapters/driven/observability"
	"github.com/custodia-labs/storefront-source/internal/adapters/driving/cli"
	"github.com/custodia-labs/storefront-source/internal/connectors/shopify"
	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driving"
	"github.com/custodia-labs/storefront-source/internal/core/services"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		logger.Error("initialise metrics: %v", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.Configure(&cli.Config{
		OpenStore:  openStore,
		NewSourcer: newSourcerFactory(metrics),
		Gatherer:   metrics.Registry(),
	})

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newSourcerFactory wires the storefront client, node helpers, image
// downloader and console and metrics sinks around a store.
func newSourcerFactory(metrics *observability.Metrics) cli.SourcerFactory {
	return func(store driven.NodeStore, opts domain.Options) (driving.Sourcer, error) {
		helpers := nodeid.New(domain.Owner)
		actions := metrics.CountActions(store)

		var attacher driven.FileAttacher
		if opts.DownloadImages {
			downloader, err := files.NewDownloader(files.Config{
				CacheDir: opts.ImageCacheDir,
				Timeout:  opts.RequestTimeout,
			}, actions, helpers)
			if err != nil {
				return nil, err
			}
			attacher = downloader
		}

		console := observability.NewConsole(os.Stdout, "storefront-source/"+opts.ShopName)
		sink := observability.Multi{console, metrics}

		return services.NewSourcingService(
			shopify.NewClientBuilder(),
			actions,
			helpers,
			attacher,
			sink,
			sink,
		), nil
	}
}
