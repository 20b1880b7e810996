package observability

import (
	"context"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Multi implements the interfaces.
var (
	_ driven.Tracer   = Multi(nil)
	_ driven.Reporter = Multi(nil)
)

// Sink is both a tracer and a reporter.
type Sink interface {
	driven.Tracer
	driven.Reporter
}

// Multi fans spans and reports out to every sink in order.
type Multi []Sink

// Start starts a span on every sink. The returned context is the one
// produced by the last sink.
func (m Multi) Start(ctx context.Context, name string) (context.Context, driven.Span) {
	spans := make(multiSpan, 0, len(m))
	for _, sink := range m {
		var span driven.Span
		ctx, span = sink.Start(ctx, name)
		spans = append(spans, span)
	}
	return ctx, spans
}

// Info forwards to every sink.
func (m Multi) Info(msg string) {
	for _, sink := range m {
		sink.Info(msg)
	}
}

// RequestFailed forwards to every sink.
func (m Multi) RequestFailed(err *domain.RequestError) {
	for _, sink := range m {
		sink.RequestFailed(err)
	}
}

type multiSpan []driven.Span

// End ends the spans in reverse start order.
func (s multiSpan) End(err error) {
	for i := len(s) - 1; i >= 0; i-- {
		s[i].End(err)
	}
}
