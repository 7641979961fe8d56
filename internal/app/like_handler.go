package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likeService service.LikeService
}

func NewLikeHandler(likeService service.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// Toggle returns a handler that likes or unlikes the :id target of the given
// type. The response carries the state after the call.
// POST /api/v1/{posts,comments,forests,...}/:id/like
func (h *LikeHandler) Toggle(targetType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		result, err := h.likeService.Toggle(userID, targetType, c.Param("id"))
		if err != nil {
			handleServiceError(c, err)
			return
		}

		message := "Unliked successfully"
		if result.Liked {
			message = "Liked successfully"
		}
		util.SuccessResponse(c, http.StatusOK, message, result)
	}
}

// Status reports whether the caller liked the :id target.
// GET /api/v1/{posts,comments,forests,...}/:id/like
func (h *LikeHandler) Status(targetType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		liked, err := h.likeService.CheckUserLiked(userID, targetType, c.Param("id"))
		if err != nil {
			handleServiceError(c, err)
			return
		}
		util.SuccessResponse(c, http.StatusOK, "Like status retrieved successfully", gin.H{"liked": liked})
	}
}
