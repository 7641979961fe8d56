package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	repPicField = "rep_pic"
	placesField = "places"
)

type CurationHandler struct {
	curationService service.CurationService
}

func NewCurationHandler(curationService service.CurationService) *CurationHandler {
	return &CurationHandler{curationService: curationService}
}

// formPlaces decodes the JSON array multipart clients send in the "places"
// field. ok is false when the field is absent.
func formPlaces(c *gin.Context) (places []service.CurationPlace, ok bool, err error) {
	raw, present := c.GetPostForm(placesField)
	if !present {
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &places); err != nil {
		return nil, true, fmt.Errorf("%w: places must be a JSON array", service.ErrValidation)
	}
	return places, true, nil
}

// CreateCuration accepts JSON, or multipart with the picture under "rep_pic"
// POST /api/v1/curations
func (h *CurationHandler) CreateCuration(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateCurationRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	if isMultipart(c) {
		places, _, err := formPlaces(c)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		req.Places = places
	}
	repPic, err := readUpload(c, repPicField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	curation, err := h.curationService.CreateCuration(c.Request.Context(), userID, req, repPic)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusCreated, "Curation created successfully", gin.H{"curation": curation})
}

// GetCuration hides unreleased curations from everyone but the writer
// GET /api/v1/curations/:id
func (h *CurationHandler) GetCuration(c *gin.Context) {
	curation, err := h.curationService.GetCuration(c.Param("id"), viewerID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Curation retrieved successfully", gin.H{"curation": curation})
}

// GET /api/v1/curations
func (h *CurationHandler) ListCurations(c *gin.Context) {
	var req service.ListCurationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		util.BindError(c, err)
		return
	}
	page := util.ParsePage(c)

	curations, total, err := h.curationService.ListCurations(req, viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, curations)
}

// GET /api/v1/curations/selected
func (h *CurationHandler) ListSelected(c *gin.Context) {
	page := util.ParsePage(c)
	curations, total, err := h.curationService.ListSelected(viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, curations)
}

// PATCH /api/v1/curations/:id
func (h *CurationHandler) UpdateCuration(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.UpdateCurationRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	if isMultipart(c) {
		places, present, err := formPlaces(c)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		if present {
			req.Places = &places
		}
	}
	repPic, err := readUpload(c, repPicField)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	curation, err := h.curationService.UpdateCuration(c.Request.Context(), userID, c.Param("id"), req, repPic)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Curation updated successfully", gin.H{"curation": curation})
}

// DELETE /api/v1/curations/:id
func (h *CurationHandler) DeleteCuration(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.curationService.DeleteCuration(userID, c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Curation deleted successfully", nil)
}
