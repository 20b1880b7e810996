package driven

import "context"

// FileAttacher downloads a remote file and registers it as a file node.
type FileAttacher interface {
	// Attach ensures a file node exists for url and returns its id.
	// Previously downloaded files are touched rather than fetched again.
	Attach(ctx context.Context, url string) (string, error)
}
