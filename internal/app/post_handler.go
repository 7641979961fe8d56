package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

const photosField = "photos"

type PostHandler struct {
	postService service.PostService
}

func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// GetBoards lists every board with its capability flags
// GET /api/v1/boards
func (h *PostHandler) GetBoards(c *gin.Context) {
	boards, err := h.postService.GetBoards()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Boards retrieved successfully", gin.H{"boards": boards})
}

// GET /api/v1/boards/:id
func (h *PostHandler) GetBoard(c *gin.Context) {
	board, err := h.postService.GetBoard(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Board retrieved successfully", gin.H{"board": board})
}

// CreateBoard handles board creation (admin only)
// POST /api/v1/admin/boards
func (h *PostHandler) CreateBoard(c *gin.Context) {
	var req service.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}

	board, err := h.postService.CreateBoard(req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Board created successfully", gin.H{"board": board})
}

// CreatePost accepts JSON, or multipart with files under "photos"
// POST /api/v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), userID, req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Post created successfully", gin.H{"post": post})
}

// GetPost records a view for signed-in readers
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postService.GetPostByID(c.Param("id"), viewerID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Post retrieved successfully", gin.H{"post": post})
}

// ListPosts supports ?board=&query=&order=latest|hot|likes&writer=
// GET /api/v1/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	var req service.ListPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		util.BindError(c, err)
		return
	}
	page := util.ParsePage(c)

	posts, total, err := h.postService.ListPosts(req, viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, posts)
}

// PATCH /api/v1/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.UpdatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), userID, c.Param("id"), req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Post updated successfully", gin.H{"post": post})
}

// DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.postService.DeletePost(userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Post deleted successfully", nil)
}

// Report files a report on a post or post comment
// POST /api/v1/reports
func (h *PostHandler) Report(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}

	report, err := h.postService.Report(userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Report submitted successfully", gin.H{"report": report})
}
