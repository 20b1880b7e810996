package driven

import (
	"context"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
)

// Tracer starts spans around units of sourcing work.
type Tracer interface {
	// Start begins a span. The returned context carries it.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span is a started unit of work.
type Span interface {
	// End finishes the span. err is nil on success.
	End(err error)
}

// Reporter presents run-level messages to the operator.
type Reporter interface {
	// Info reports a progress message.
	Info(msg string)

	// RequestFailed reports a failed API request with its query and
	// error payload.
	RequestFailed(err *domain.RequestError)
}
