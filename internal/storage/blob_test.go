package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("posts", "Photo.PNG")
	assert.True(t, strings.HasPrefix(key, "posts/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	assert.True(t, strings.HasSuffix(ObjectKey("posts", "noext"), ".jpg"))
	assert.NotEqual(t, ObjectKey("a", "x.jpg"), ObjectKey("a", "x.jpg"))
}

func TestStoreAllRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.FailAfter = 3

	_, err := StoreAll(ctx, store, "comments", []Upload{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.jpg", Data: []byte("b")},
		{Filename: "c.jpg", Data: []byte("c")},
	})

	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestStoreAllAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	stored, err := StoreAll(ctx, store, "reviews", []Upload{{Filename: "a.webp", Data: []byte("a")}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "memory://"+stored[0].Key, stored[0].URL)
	assert.True(t, store.Has(stored[0].Key))

	DeleteAll(ctx, store, stored)
	assert.Equal(t, 0, store.Len())
}

func TestCompressImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, ct := compressImage(buf.Bytes(), "x.png")
	assert.Equal(t, "image/jpeg", ct)
	assert.NotEmpty(t, out)

	raw := []byte("not an image")
	out, ct = compressImage(raw, "x.gif")
	assert.Equal(t, raw, out)
	assert.Equal(t, "image/gif", ct)

	out, _ = compressImage(raw, "broken.jpg")
	assert.Equal(t, raw, out)
}
