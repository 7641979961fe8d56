package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/config"

	"github.com/google/uuid"
)

// BlobStore keeps uploaded photos. Store returns the public URL of the object
// written at key; Delete removes the object at key.
type BlobStore interface {
	Store(ctx context.Context, data []byte, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload is a photo received from a multipart request.
type Upload struct {
	Filename string
	Data     []byte
}

// Stored is the result of one upload: the object key and its public URL.
type Stored struct {
	Key string
	URL string
}

// New picks the backend named by BLOB_BACKEND.
func New(cfg *config.Config) (BlobStore, error) {
	switch cfg.BlobBackend {
	case "cloudinary":
		return NewCloudinaryStore(cfg)
	case "minio", "s3":
		return NewMinioStore(context.Background(), cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// ObjectKey builds "<prefix>/<yyyy>/<mm>/<uuid><ext>" for an uploaded file.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("%s/%04d/%02d/%s%s", prefix, now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// StoreAll uploads every file under prefix. If one upload fails the ones
// already written are removed before the error is returned.
func StoreAll(ctx context.Context, store BlobStore, prefix string, uploads []Upload) ([]Stored, error) {
	stored := make([]Stored, 0, len(uploads))
	for _, up := range uploads {
		key := ObjectKey(prefix, up.Filename)
		url, err := store.Store(ctx, up.Data, key)
		if err != nil {
			DeleteAll(ctx, store, stored)
			return nil, fmt.Errorf("upload %s: %w", up.Filename, err)
		}
		stored = append(stored, Stored{Key: key, URL: url})
	}
	return stored, nil
}

// DeleteAll removes objects on a best-effort basis; failures are only logged.
func DeleteAll(ctx context.Context, store BlobStore, objects []Stored) {
	for _, obj := range objects {
		if err := store.Delete(ctx, obj.Key); err != nil {
			log.Printf("Failed to delete blob %s: %v", obj.Key, err)
		}
	}
}

// DeleteKeys is DeleteAll for bare keys.
func DeleteKeys(ctx context.Context, store BlobStore, keys []string) {
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			log.Printf("Failed to delete blob %s: %v", key, err)
		}
	}
}

// compressImage re-encodes JPEG and PNG input as quality-80 JPEG. Other
// formats (webp, gif) are passed through untouched.
func compressImage(data []byte, key string) ([]byte, string) {
	var (
		img image.Image
		err error
	)

	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return data, contentType(key)
	}
	if err != nil {
		return data, contentType(key)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return data, contentType(key)
	}
	return buf.Bytes(), "image/jpeg"
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// MemoryStore keeps objects in a map. Used by tests and local runs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// FailAfter makes the n-th and later Store calls fail when > 0.
	FailAfter int
	calls     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Store(_ context.Context, data []byte, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.FailAfter > 0 && m.calls >= m.FailAfter {
		return "", fmt.Errorf("memory store: injected failure on %s", key)
	}

	m.objects[key] = append([]byte(nil), data...)
	return "memory://" + key, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
