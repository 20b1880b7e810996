package driving

import (
	"context"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

// Sourcer runs a sourcing pass against the storefront API.
type Sourcer interface {
	// SourceNodes fetches the families selected by opts and registers
	// their nodes. Any API failure fails the whole run.
	SourceNodes(ctx context.Context, opts domain.Options) (*domain.SourceReport, error)
}
