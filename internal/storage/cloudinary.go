package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cfg *config.Config) (*CloudinaryStore, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryStore{cld: cld, folder: cfg.CloudinaryFolder}, nil
}

// publicID maps an object key to a cloudinary public id (no extension).
func (s *CloudinaryStore) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

// Store uploads the image and returns a URL delivered as WebP.
func (s *CloudinaryStore) Store(ctx context.Context, data []byte, key string) (string, error) {
	body, _ := compressImage(data, key)

	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(body), uploader.UploadParams{
		PublicID:       s.publicID(key),
		Overwrite:      api.Bool(true),
		Transformation: "q_auto,f_webp,w_1280",
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("error uploading to cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", result.Error.Message)
	}

	return strings.Replace(result.SecureURL, "/upload/", "/upload/f_webp,q_auto,w_1280/", 1), nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     s.publicID(key),
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("error deleting from cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	return nil
}
