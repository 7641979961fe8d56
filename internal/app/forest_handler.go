package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type ForestHandler struct {
	forestService service.ForestService
}

func NewForestHandler(forestService service.ForestService) *ForestHandler {
	return &ForestHandler{forestService: forestService}
}

type forestCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// GET /api/v1/forests/categories
func (h *ForestHandler) ListCategories(c *gin.Context) {
	categories, err := h.forestService.ListCategories()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", gin.H{"categories": categories})
}

// GET /api/v1/forests/categories/:id/semi-categories
func (h *ForestHandler) ListSemiCategories(c *gin.Context) {
	semis, err := h.forestService.ListSemiCategories(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Semi categories retrieved successfully", gin.H{"semi_categories": semis})
}

// POST /api/v1/forests
func (h *ForestHandler) CreateForest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateForestRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	forest, err := h.forestService.CreateForest(c.Request.Context(), userID, req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Forest created successfully", gin.H{"forest": forest})
}

// GET /api/v1/forests/:id
func (h *ForestHandler) GetForest(c *gin.Context) {
	forest, err := h.forestService.GetForest(c.Param("id"), viewerID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Forest retrieved successfully", gin.H{"forest": forest})
}

// GET /api/v1/forests
func (h *ForestHandler) ListForests(c *gin.Context) {
	var req service.ListForestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		util.BindError(c, err)
		return
	}
	page := util.ParsePage(c)

	forests, total, err := h.forestService.ListForests(req, viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, forests)
}

// PATCH /api/v1/forests/:id
func (h *ForestHandler) UpdateForest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.UpdateForestRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	forest, err := h.forestService.UpdateForest(c.Request.Context(), userID, c.Param("id"), req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Forest updated successfully", gin.H{"forest": forest})
}

// DELETE /api/v1/forests/:id
func (h *ForestHandler) DeleteForest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.forestService.DeleteForest(userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Forest deleted successfully", nil)
}

// GET /api/v1/forests/:id/comments
func (h *ForestHandler) ListComments(c *gin.Context) {
	page := util.ParsePage(c)
	comments, total, err := h.forestService.ListComments(c.Param("id"), viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, comments)
}

// POST /api/v1/forests/:id/comments
func (h *ForestHandler) CreateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req forestCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}

	comment, err := h.forestService.CreateComment(userID, c.Param("id"), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Comment created successfully", gin.H{"comment": comment})
}

// PATCH /api/v1/forests/comments/:id
func (h *ForestHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req forestCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}

	comment, err := h.forestService.UpdateComment(userID, c.Param("id"), req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Comment updated successfully", gin.H{"comment": comment})
}

// DELETE /api/v1/forests/comments/:id
func (h *ForestHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.forestService.DeleteComment(userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Comment deleted successfully", nil)
}
