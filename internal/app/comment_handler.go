package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateComment handles comment creation. A reply sends is_parent=false and
// the parent's id.
// POST /api/v1/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), userID, req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Comment created successfully", gin.H{"comment": comment})
}

// GET /api/v1/comments/:id
func (h *CommentHandler) GetComment(c *gin.Context) {
	comment, err := h.commentService.GetCommentByID(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Comment retrieved successfully", gin.H{"comment": comment})
}

// GetCommentsByPost lists comments grouped by thread: each parent followed by
// its replies, oldest first.
// GET /api/v1/posts/:id/comments
func (h *CommentHandler) GetCommentsByPost(c *gin.Context) {
	page := util.ParsePage(c)

	comments, total, err := h.commentService.GetCommentsByPostID(c.Param("id"), viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, comments)
}

// PATCH /api/v1/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}

	comment, err := h.commentService.UpdateComment(userID, c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Comment updated successfully", gin.H{"comment": comment})
}

// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.commentService.DeleteComment(userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Comment deleted successfully", nil)
}
