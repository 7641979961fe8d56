package service

import (
	"context"
	"log"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
)

// Blob key prefixes per photo owner.
const (
	blobPrefixPosts    = "posts"
	blobPrefixComments = "comments"
	blobPrefixForests  = "forests"
	blobPrefixCuration = "curations"
	blobPrefixReviews  = "reviews"
	blobPrefixProfiles = "profiles"
)

// goAsync runs background side effects (notifications) outside the request.
type goAsync func(fn func())

func runInBackground(fn func()) {
	go fn()
}

// uploadPhotos stores every upload under prefix before a transaction starts.
func uploadPhotos(ctx context.Context, store storage.BlobStore, prefix string, uploads []storage.Upload) ([]model.Photo, []storage.Stored, error) {
	if len(uploads) == 0 {
		return nil, nil, nil
	}
	stored, err := storage.StoreAll(ctx, store, prefix, uploads)
	if err != nil {
		return nil, nil, err
	}
	photos := make([]model.Photo, 0, len(stored))
	for _, s := range stored {
		photos = append(photos, model.Photo{URL: s.URL, Key: s.Key})
	}
	return photos, stored, nil
}

// discardUploads undoes uploadPhotos after a failed write.
func discardUploads(store storage.BlobStore, stored []storage.Stored) {
	if len(stored) == 0 {
		return
	}
	storage.DeleteAll(context.Background(), store, stored)
}

// removeBlobs drops blobs whose rows are gone after a committed write.
func removeBlobs(store storage.BlobStore, keys []string) {
	if len(keys) == 0 {
		return
	}
	storage.DeleteKeys(context.Background(), store, keys)
}

// resolveUser looks a user up by email when ref contains '@', else by id.
func resolveUser(users repository.UserRepository, ref string) (*model.User, error) {
	ref = strings.TrimSpace(ref)
	var (
		user *model.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = users.FindByEmail(ref)
	} else {
		user, err = users.FindByID(ref)
	}
	if err != nil {
		return nil, storeError(err, "user "+ref)
	}
	return user, nil
}

func logBackground(what string, err error) {
	if err != nil {
		log.Printf("Failed to %s: %v", what, err)
	}
}
