package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/config"
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func init() {
	gin.SetMode(gin.TestMode)
}

// Stubs embed the service interface so each test only implements what it
// exercises; anything else panics.

type stubPostService struct{ service.PostService }
type stubUserService struct{ service.UserService }
type stubFollowService struct{ service.FollowService }
type stubNotificationService struct{ service.NotificationService }
type stubForestService struct{ service.ForestService }
type stubPlaceService struct{ service.PlaceService }
type stubMypageService struct{ service.MypageService }

type stubCommentService struct {
	service.CommentService
	userID string
	req    service.CreateCommentRequest
	photos []storage.Upload
	err    error

	comments []*model.PostComment
	total    int64
	limit    int
	offset   int
}

func (s *stubCommentService) CreateComment(_ context.Context, userID string, req service.CreateCommentRequest, photos []storage.Upload) (*model.PostComment, error) {
	s.userID, s.req, s.photos = userID, req, photos
	if s.err != nil {
		return nil, s.err
	}
	return &model.PostComment{ID: "c-1", PostID: req.PostID, Content: req.Content, IsParent: req.IsParent}, nil
}

func (s *stubCommentService) GetCommentsByPostID(_ string, _ string, limit, offset int) ([]*model.PostComment, int64, error) {
	s.limit, s.offset = limit, offset
	return s.comments, s.total, nil
}

type stubLikeService struct {
	service.LikeService
	calls []string
	liked bool
}

func (s *stubLikeService) Toggle(userID, targetType, targetID string) (*service.LikeResult, error) {
	s.calls = append(s.calls, userID+"|"+targetType+"|"+targetID)
	s.liked = !s.liked
	count := int64(0)
	if s.liked {
		count = 1
	}
	return &service.LikeResult{TargetType: targetType, TargetID: targetID, Liked: s.liked, LikeCount: count}, nil
}

type stubCurationService struct {
	service.CurationService
	req    service.CreateCurationRequest
	repPic *storage.Upload
}

func (s *stubCurationService) CreateCuration(_ context.Context, _ string, req service.CreateCurationRequest, repPic *storage.Upload) (*model.Curation, error) {
	s.req, s.repPic = req, repPic
	return &model.Curation{ID: "cur-1", Title: req.Title}, nil
}

func testHandlers() *handlers {
	return &handlers{
		post:         NewPostHandler(stubPostService{}),
		comment:      NewCommentHandler(&stubCommentService{}),
		like:         NewLikeHandler(&stubLikeService{}),
		user:         NewUserHandler(stubUserService{}, stubFollowService{}),
		notification: NewNotificationHandler(stubNotificationService{}),
		forest:       NewForestHandler(stubForestService{}),
		curation:     NewCurationHandler(&stubCurationService{}),
		place:        NewPlaceHandler(stubPlaceService{}),
		mypage:       NewMypageHandler(stubMypageService{}),
	}
}

func newTestRouter(h *handlers) *gin.Engine {
	r := gin.New()
	registerRoutes(r, h, testSecret)
	return r
}

func bearer(t *testing.T, userID, userType string) string {
	t.Helper()
	token, err := util.GenerateToken(userID, userID+"@sasm.test", userType, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: content must not be blank", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: board does not allow comments", service.ErrCapability), http.StatusForbidden},
		{fmt.Errorf("%w: post", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: not the writer", service.ErrAuthorization), http.StatusForbidden},
		{fmt.Errorf("%w: report already exists", service.ErrConflict), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleServiceError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.Equal(t, "error", env.Status)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "Internal server error", env.Message)
			} else {
				assert.Equal(t, tt.err.Error(), env.Message)
			}
		})
	}
}

func TestCreateComment_JSON(t *testing.T) {
	h := testHandlers()
	comments := &stubCommentService{}
	h.comment = NewCommentHandler(comments)
	r := newTestRouter(h)

	body := `{"post_id":"p-1","is_parent":true,"content":"first"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "user-1", comments.userID)
	assert.Equal(t, "p-1", comments.req.PostID)
	assert.True(t, comments.req.IsParent)
	assert.Empty(t, comments.photos)

	var data struct {
		Comment model.PostComment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "c-1", data.Comment.ID)
}

func TestCreateComment_MissingFields(t *testing.T) {
	h := testHandlers()
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", bytes.NewBufferString(`{"post_id":"p-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content: is required")
}

func TestCreateComment_ServiceErrorsMapToStatus(t *testing.T) {
	h := testHandlers()
	h.comment = NewCommentHandler(&stubCommentService{
		err: fmt.Errorf("%w: a reply cannot be replied to", service.ErrValidation),
	})
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments",
		bytes.NewBufferString(`{"post_id":"p-1","is_parent":false,"parent_id":"c-2","content":"nested"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Message, "a reply cannot be replied to")
}

func TestCreateComment_MultipartPhotos(t *testing.T) {
	h := testHandlers()
	comments := &stubCommentService{}
	h.comment = NewCommentHandler(comments)
	r := newTestRouter(h)

	fields := map[string]string{"post_id": "p-1", "is_parent": "true", "content": "with photo"}

	body, contentType := multipartBody(t, fields, formFile{"photos", "shot.png", pngHeader})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, comments.photos, 1)
	assert.Equal(t, "shot.png", comments.photos[0].Filename)
	assert.Equal(t, pngHeader, comments.photos[0].Data)

	// Not an image.
	comments.photos = nil
	body, contentType = multipartBody(t, fields, formFile{"photos", "notes.txt", []byte("plain text")})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/comments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "notes.txt is not an image")
	assert.Nil(t, comments.photos)
}

func TestReadUploads_TooManyFiles(t *testing.T) {
	files := make([]formFile, maxUploadFiles+1)
	for i := range files {
		files[i] = formFile{"photos", fmt.Sprintf("p%d.png", i), pngHeader}
	}
	body, contentType := multipartBody(t, nil, files...)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", body)
	c.Request.Header.Set("Content-Type", contentType)

	_, err := readUploads(c, "photos")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestGetCommentsByPost_Pagination(t *testing.T) {
	h := testHandlers()
	comments := &stubCommentService{
		comments: []*model.PostComment{{ID: "c-3", PostID: "p-1", Content: "third"}},
		total:    5,
	}
	h.comment = NewCommentHandler(comments)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/p-1/comments?page=3&page_size=1", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, comments.limit)
	assert.Equal(t, 2, comments.offset)

	var page struct {
		Count    int64               `json:"count"`
		Next     *string             `json:"next"`
		Previous *string             `json:"previous"`
		Results  []model.PostComment `json:"results"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Equal(t, int64(5), page.Count)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, "page=4")
	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Previous, "page=2")
	require.Len(t, page.Results, 1)
	assert.Equal(t, "c-3", page.Results[0].ID)
}

func TestLikeToggleRoutes(t *testing.T) {
	h := testHandlers()
	likes := &stubLikeService{}
	h.like = NewLikeHandler(likes)
	r := newTestRouter(h)

	toggle := func(path string) envelope {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", bearer(t, "user-1", "user"))
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode(t, w)
	}

	assert.Equal(t, "Liked successfully", toggle("/api/v1/posts/p-1/like").Message)
	assert.Equal(t, "Unliked successfully", toggle("/api/v1/posts/p-1/like").Message)
	toggle("/api/v1/forests/comments/fc-1/like")
	toggle("/api/v1/places/pl-1/like")

	assert.Equal(t, []string{
		"user-1|post|p-1",
		"user-1|post|p-1",
		"user-1|forest_comment|fc-1",
		"user-1|place|pl-1",
	}, likes.calls)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r := newTestRouter(testHandlers())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/places", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateCuration_MultipartPlaces(t *testing.T) {
	h := testHandlers()
	curations := &stubCurationService{}
	h.curation = NewCurationHandler(curations)
	r := newTestRouter(h)

	fields := map[string]string{
		"title":       "Zero waste walk",
		"contents":    "Three refill shops",
		"is_released": "true",
		"places":      `[{"place_id":"pl-1","short_curation":"bulk soap"},{"place_id":"pl-2"}]`,
	}
	body, contentType := multipartBody(t, fields, formFile{"rep_pic", "cover.png", pngHeader})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/curations", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, curations.req.IsReleased)
	assert.Equal(t, []service.CurationPlace{
		{PlaceID: "pl-1", ShortCuration: "bulk soap"},
		{PlaceID: "pl-2"},
	}, curations.req.Places)
	require.NotNil(t, curations.repPic)
	assert.Equal(t, "cover.png", curations.repPic.Filename)

	fields["places"] = "pl-1,pl-2"
	body, contentType = multipartBody(t, fields)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/curations", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearer(t, "user-1", "user"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "places must be a JSON array")
}

func TestAllowedOrigins(t *testing.T) {
	assert.Empty(t, allowedOrigins(&config.Config{}))

	cfg := &config.Config{
		ClientURL:      "https://sasm.example",
		AllowedOrigins: []string{"", "http://localhost:3000"},
	}
	assert.Equal(t, []string{"https://sasm.example", "http://localhost:3000"}, allowedOrigins(cfg))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(corsMiddleware(&config.Config{ClientURL: "https://sasm.example"}))
	registerRoutes(r, testHandlers(), testSecret)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	req.Header.Set("Origin", "https://sasm.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://sasm.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

type recordingMypage struct {
	service.MypageService
	owners []string
}

func (s *recordingMypage) MyPosts(userID string, _, _ int) ([]*model.Post, int64, error) {
	s.owners = append(s.owners, userID)
	return []*model.Post{}, 0, nil
}

func TestMypage_MeResolvesToCaller(t *testing.T) {
	h := testHandlers()
	mypage := &recordingMypage{}
	h.mypage = NewMypageHandler(mypage)
	r := newTestRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/mypage/me/posts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/mypage/me/posts", nil)
	req.Header.Set("Authorization", bearer(t, "user-7", "user"))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/mypage/user-9/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"user-7", "user-9"}, mypage.owners)
}
