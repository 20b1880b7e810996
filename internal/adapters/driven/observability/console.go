package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Console implements the interfaces.
var (
	_ driven.Tracer   = (*Console)(nil)
	_ driven.Reporter = (*Console)(nil)
)

// Console prints progress, timings and request failures to a terminal.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	namespace string
	styles    *Styles
	now       func() time.Time
}

// NewConsole creates a console writing to out under the given namespace,
// typically "storefront-source/<shop>". Colour is enabled only when out
// is a terminal.
func NewConsole(out io.Writer, namespace string) *Console {
	return &Console{
		out:       out,
		namespace: namespace,
		styles:    NewStyles(DefaultTheme(), isTerminal(out)),
		now:       time.Now,
	}
}

// Namespace returns the message prefix.
func (c *Console) Namespace() string {
	return c.namespace
}

// Info prints a namespaced progress message.
func (c *Console) Info(msg string) {
	c.printf("\n%s %s\n", c.prefix(), msg)
}

// RequestFailed prints the failed query and its error payload.
func (c *Console) RequestFailed(err *domain.RequestError) {
	if err == nil {
		return
	}
	badge := c.styles.Badge.Render("error")
	c.printf("\n%s %s query:\n%s\n", badge, c.prefix(), err.Query)
	if len(err.Variables) > 0 {
		c.printf("\n%s %s variables: %v\n", badge, c.prefix(), err.Variables)
	}
	c.printf("\n%s %s errors:\n%s\n", badge, c.prefix(), c.styles.Muted.Render(err.Detail()))
}

// Start begins a timed span. Ending it prints "<namespace> <name>: <elapsed>".
func (c *Console) Start(ctx context.Context, name string) (context.Context, driven.Span) {
	return ctx, &consoleSpan{console: c, name: name, started: c.now()}
}

func (c *Console) prefix() string {
	if c.namespace == "" {
		return ""
	}
	return c.styles.Namespace.Render(c.namespace)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

type consoleSpan struct {
	console *Console
	name    string
	started time.Time
	once    sync.Once
}

// End prints the elapsed time once. Failed spans are marked with the
// error badge.
func (s *consoleSpan) End(err error) {
	s.once.Do(func() {
		elapsed := s.console.now().Sub(s.started)
		took := s.console.styles.Muted.Render(formatElapsed(elapsed))
		if err != nil {
			badge := s.console.styles.Badge.Render("error")
			s.console.printf("%s %s %s: %s\n", badge, s.console.prefix(), s.name, took)
			return
		}
		s.console.printf("%s %s: %s\n", s.console.prefix(), s.name, took)
	})
}

// formatElapsed renders a duration in milliseconds with three decimals.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
