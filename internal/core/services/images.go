package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// LocalFileField links an image object to its downloaded file node.
const LocalFileField = "localFile___NODE"

// imageFields are the node fields that may hold an image object.
var imageFields = []string{"image", "featuredImage"}

// imageURLKeys are checked in order for an image object's source URL.
var imageURLKeys = []string{"url", "originalSrc", "transformedSrc", "src"}

// imageAttacher downloads images referenced by a node's fields.
type imageAttacher struct {
	files driven.FileAttacher
}

// attach links every image object on fields to a downloaded file node.
// It returns the number of images attached.
func (a *imageAttacher) attach(ctx context.Context, fields map[string]any) (int, error) {
	if a == nil || a.files == nil {
		return 0, nil
	}

	attached := 0
	for _, name := range imageFields {
		img, ok := fields[name].(map[string]any)
		if !ok {
			continue
		}
		ok, err := a.attachOne(ctx, img)
		if err != nil {
			return attached, fmt.Errorf("attach %s: %w", name, err)
		}
		if ok {
			attached++
		}
	}

	// images { edges { node { url } } }
	if images, ok := fields["images"].(map[string]any); ok {
		edges, err := decodeEdges(images["edges"])
		if err != nil {
			return attached, fmt.Errorf("attach images: %w", err)
		}
		for _, e := range edges {
			ok, err := a.attachOne(ctx, e.node)
			if err != nil {
				return attached, fmt.Errorf("attach images: %w", err)
			}
			if ok {
				attached++
			}
		}
	}

	return attached, nil
}

func (a *imageAttacher) attachOne(ctx context.Context, img map[string]any) (bool, error) {
	url := imageURL(img)
	if url == "" {
		return false, nil
	}
	id, err := a.files.Attach(ctx, url)
	if err != nil {
		return false, err
	}
	img[LocalFileField] = id
	return true, nil
}

func imageURL(img map[string]any) string {
	for _, key := range imageURLKeys {
		if s, ok := img[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
