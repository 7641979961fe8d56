package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	maxUploadFiles = 10
	maxUploadSize  = 10 << 20 // per file
)

// handleServiceError answers with the status that matches the error's kind.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		util.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrCapability):
		util.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAuthorization):
		util.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		util.Conflict(c, err.Error())
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		util.InternalServerError(c, "Internal server error")
	}
}

// currentUserID returns the authenticated user, answering 401 when there is none.
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return "", false
	}
	return userID.(string), true
}

// viewerID is the signed-in user on optionally authenticated routes, or "".
func viewerID(c *gin.Context) string {
	if userID, exists := c.Get("userID"); exists {
		return userID.(string)
	}
	return ""
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// readUploads collects the files sent under field. Non-multipart requests
// carry no files.
func readUploads(c *gin.Context, field string) ([]storage.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrValidation, err)
	}

	files := form.File[field]
	if len(files) > maxUploadFiles {
		return nil, fmt.Errorf("%w: at most %d files may be uploaded", service.ErrValidation, maxUploadFiles)
	}

	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		up, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

// readUpload returns the single file under field, or nil.
func readUpload(c *gin.Context, field string) (*storage.Upload, error) {
	uploads, err := readUploads(c, field)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func readFile(fh *multipart.FileHeader) (storage.Upload, error) {
	if fh.Size > maxUploadSize {
		return storage.Upload{}, fmt.Errorf("%w: %s is larger than %d MB", service.ErrValidation, fh.Filename, maxUploadSize>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return storage.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		return storage.Upload{}, err
	}
	if len(data) > maxUploadSize {
		return storage.Upload{}, fmt.Errorf("%w: %s is larger than %d MB", service.ErrValidation, fh.Filename, maxUploadSize>>20)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return storage.Upload{}, fmt.Errorf("%w: %s is not an image", service.ErrValidation, fh.Filename)
	}
	return storage.Upload{Filename: fh.Filename, Data: data}, nil
}
