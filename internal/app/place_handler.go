package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type PlaceHandler struct {
	placeService service.PlaceService
}

func NewPlaceHandler(placeService service.PlaceService) *PlaceHandler {
	return &PlaceHandler{placeService: placeService}
}

// CreatePlace registers a place. Admin only.
// POST /api/v1/admin/places
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	var req service.CreatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BindError(c, err)
		return
	}

	place, err := h.placeService.CreatePlace(req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Place created successfully", gin.H{"place": place})
}

// GET /api/v1/places/:id
func (h *PlaceHandler) GetPlace(c *gin.Context) {
	place, err := h.placeService.GetPlace(c.Param("id"), viewerID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Place retrieved successfully", gin.H{"place": place})
}

// GET /api/v1/places?query=&category=
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	var req service.ListPlacesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		util.BindError(c, err)
		return
	}
	page := util.ParsePage(c)

	places, total, err := h.placeService.ListPlaces(req, viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, places)
}

// GET /api/v1/places/:id/reviews
func (h *PlaceHandler) ListReviews(c *gin.Context) {
	page := util.ParsePage(c)
	reviews, total, err := h.placeService.ListReviews(c.Param("id"), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, reviews)
}

// POST /api/v1/places/:id/reviews
func (h *PlaceHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.ReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	review, err := h.placeService.CreateReview(c.Request.Context(), userID, c.Param("id"), req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Review created successfully", gin.H{"review": review})
}

// PATCH /api/v1/reviews/:id
func (h *PlaceHandler) UpdateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.ReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	photos, err := readUploads(c, photosField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	review, err := h.placeService.UpdateReview(c.Request.Context(), userID, c.Param("id"), req, photos)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Review updated successfully", gin.H{"review": review})
}

// DELETE /api/v1/reviews/:id
func (h *PlaceHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.placeService.DeleteReview(userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Review deleted successfully", nil)
}
