package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageAttacher_Attach(t *testing.T) {
	files := &mockFiles{}
	a := &imageAttacher{files: files}
	fields := map[string]any{
		"image":         map[string]any{"url": "https://cdn.test/a.png"},
		"featuredImage": map[string]any{"originalSrc": "https://cdn.test/b.png"},
		"images": map[string]any{"edges": []any{
			map[string]any{"node": map[string]any{"src": "https://cdn.test/c.png"}},
			map[string]any{"node": map[string]any{"altText": "no url"}},
		}},
	}

	n, err := a.attach(context.Background(), fields)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"https://cdn.test/a.png", "https://cdn.test/b.png", "https://cdn.test/c.png"}, files.urls)

	assert.Equal(t, "file-https://cdn.test/a.png", fields["image"].(map[string]any)[LocalFileField])
	assert.Equal(t, "file-https://cdn.test/b.png", fields["featuredImage"].(map[string]any)[LocalFileField])
}

func TestImageAttacher_URLPreference(t *testing.T) {
	img := map[string]any{"src": "src", "url": "url", "transformedSrc": "transformed"}
	assert.Equal(t, "url", imageURL(img))
	assert.Equal(t, "transformed", imageURL(map[string]any{"src": "src", "transformedSrc": "transformed"}))
	assert.Equal(t, "", imageURL(map[string]any{"url": ""}))
}

func TestImageAttacher_NoImages(t *testing.T) {
	files := &mockFiles{}
	a := &imageAttacher{files: files}

	n, err := a.attach(context.Background(), map[string]any{"title": "About", "image": nil})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, files.urls)
}

func TestImageAttacher_Nil(t *testing.T) {
	var a *imageAttacher
	n, err := a.attach(context.Background(), map[string]any{"image": map[string]any{"url": "x"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImageAttacher_Error(t *testing.T) {
	a := &imageAttacher{files: &mockFiles{err: errors.New("download failed")}}

	_, err := a.attach(context.Background(), map[string]any{"image": map[string]any{"url": "https://cdn.test/a.png"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attach image")
	assert.Contains(t, err.Error(), "download failed")
}
