// Package files downloads remote images into a local cache and registers
// them as file nodes.
package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

// Ensure Downloader implements the interface.
var _ driven.FileAttacher = (*Downloader)(nil)

// Default configuration values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 10.0
	DefaultMaxSize           = 20 << 20
)

// Config holds configuration for the downloader.
type Config struct {
	// CacheDir is where files are written (default: os.TempDir()/storefront-source).
	CacheDir string

	// Timeout bounds a single download (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond throttles downloads (default: 10). Negative disables.
	RequestsPerSecond float64

	// MaxSize rejects larger files (default: 20MiB).
	MaxSize int64
}

// Downloader implements driven.FileAttacher over HTTP.
type Downloader struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	dir     string
	maxSize int64
	actions driven.NodeActions
	helpers driven.NodeHelpers
	group   singleflight.Group
}

// NewDownloader creates a downloader registering file nodes with actions.
func NewDownloader(cfg Config, actions driven.NodeActions, helpers driven.NodeHelpers) (*Downloader, error) {
	if actions == nil || helpers == nil {
		return nil, errors.New("files: node actions and helpers are required")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "storefront-source")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	d := &Downloader{
		client:  &http.Client{Timeout: cfg.Timeout},
		timeout: cfg.Timeout,
		dir:     cfg.CacheDir,
		maxSize: cfg.MaxSize,
		actions: actions,
		helpers: helpers,
	}
	if cfg.RequestsPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return d, nil
}

// CacheDir returns the directory files are written to.
func (d *Downloader) CacheDir() string {
	return d.dir
}

// NodeID returns the file node id for a URL.
func (d *Downloader) NodeID(rawURL string) string {
	return d.helpers.CreateNodeID(fmt.Sprintf("%s__%s", domain.FileNodeType, rawURL))
}

// Attach ensures a file node exists for rawURL and returns its id.
// Concurrent calls for the same URL share one download. The shared
// download outlives a cancelled caller and is bounded by the download
// timeout instead; each caller stops waiting when its own ctx is done.
func (d *Downloader) Attach(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: image url %q", domain.ErrInvalidInput, rawURL)
	}

	ch := d.group.DoChan(rawURL, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		return d.attach(shared, rawURL)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (d *Downloader) attach(ctx context.Context, rawURL string) (string, error) {
	id := d.NodeID(rawURL)

	if existing, err := d.actions.GetNode(ctx, id); err == nil {
		if p := existing.StringField("absolutePath"); p != "" && fileExists(p) {
			if err := d.actions.TouchNode(ctx, id); err != nil {
				return "", fmt.Errorf("touch file node: %w", err)
			}
			logger.Debug("using cached image %s", rawURL)
			return id, nil
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("lookup file node: %w", err)
	}

	absPath, mediaType, size, err := d.download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	fields := map[string]any{
		"url":          rawURL,
		"absolutePath": absPath,
		"name":         strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath)),
		"ext":          filepath.Ext(absPath),
		"mediaType":    mediaType,
		"size":         size,
	}
	node := &domain.Node{
		ID:       id,
		Children: []string{},
		Internal: domain.NodeInternal{
			Type:          domain.FileNodeType,
			ContentDigest: d.helpers.CreateContentDigest(fields),
			Owner:         domain.Owner,
		},
		Fields: fields,
	}
	if err := d.actions.CreateNode(ctx, node); err != nil {
		return "", fmt.Errorf("create file node: %w", err)
	}
	logger.Debug("downloaded image %s (%d bytes)", rawURL, size)
	return id, nil
}

// download writes rawURL into the cache and returns its path, media type and size.
func (d *Downloader) download(ctx context.Context, rawURL string) (string, string, int64, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", "", 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", "", 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", 0, fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	absPath := filepath.Join(d.dir, cacheName(rawURL, mediaType))

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", "", 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("write %s: %w", rawURL, err)
	}
	if size > d.maxSize {
		return "", "", 0, fmt.Errorf("download %s: larger than %d bytes", rawURL, d.maxSize)
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		return "", "", 0, fmt.Errorf("store %s: %w", rawURL, err)
	}

	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(absPath))
	}
	return absPath, mediaType, size, nil
}

// cacheName derives a stable file name from the URL. The extension comes
// from the URL path, falling back to the media type.
func cacheName(rawURL, mediaType string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:8])

	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = path.Ext(u.Path)
	}
	if ext == "" && mediaType != "" {
		if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return name + strings.ToLower(ext)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
