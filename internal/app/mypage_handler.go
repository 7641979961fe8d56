package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

// MypageHandler serves a user's profile page and the lists hanging off it.
// The user comes from :id, where "me" stands for the caller.
type MypageHandler struct {
	mypageService service.MypageService
}

func NewMypageHandler(mypageService service.MypageService) *MypageHandler {
	return &MypageHandler{mypageService: mypageService}
}

// pageOwner resolves :id, answering 401 for "me" without a signed-in caller.
func pageOwner(c *gin.Context) (string, bool) {
	if id := c.Param("id"); id != "me" {
		return id, true
	}
	return currentUserID(c)
}

// GET /api/v1/mypage/:id
func (h *MypageHandler) GetProfile(c *gin.Context) {
	userID, ok := pageOwner(c)
	if !ok {
		return
	}
	profile, err := h.mypageService.GetProfile(userID, viewerID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", gin.H{"profile": profile})
}

// pagedList adapts a (userID, limit, offset) lister to a paginated route.
func pagedList[T any](list func(userID string, limit, offset int) ([]T, int64, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := pageOwner(c)
		if !ok {
			return
		}
		page := util.ParsePage(c)
		results, total, err := list(userID, page.Limit(), page.Offset())
		if err != nil {
			handleServiceError(c, err)
			return
		}
		util.PaginatedResponse(c, page, total, results)
	}
}

// GET /api/v1/mypage/:id/likes/places
func (h *MypageHandler) LikedPlaces() gin.HandlerFunc { return pagedList(h.mypageService.LikedPlaces) }

// GET /api/v1/mypage/:id/likes/curations
func (h *MypageHandler) LikedCurations() gin.HandlerFunc {
	return pagedList(h.mypageService.LikedCurations)
}

// GET /api/v1/mypage/:id/likes/forests
func (h *MypageHandler) LikedForests() gin.HandlerFunc { return pagedList(h.mypageService.LikedForests) }

// GET /api/v1/mypage/:id/likes/posts
func (h *MypageHandler) LikedPosts() gin.HandlerFunc { return pagedList(h.mypageService.LikedPosts) }

// GET /api/v1/mypage/:id/posts
func (h *MypageHandler) MyPosts() gin.HandlerFunc { return pagedList(h.mypageService.MyPosts) }

// GET /api/v1/mypage/:id/comments
func (h *MypageHandler) MyComments() gin.HandlerFunc { return pagedList(h.mypageService.MyComments) }

// GET /api/v1/mypage/:id/forests
func (h *MypageHandler) MyForests() gin.HandlerFunc { return pagedList(h.mypageService.MyForests) }

// GET /api/v1/mypage/:id/reviews
func (h *MypageHandler) MyReviews() gin.HandlerFunc { return pagedList(h.mypageService.MyReviews) }

// MyCurations includes drafts only when the caller is the owner
// GET /api/v1/mypage/:id/curations
func (h *MypageHandler) MyCurations(c *gin.Context) {
	userID, ok := pageOwner(c)
	if !ok {
		return
	}
	page := util.ParsePage(c)
	curations, total, err := h.mypageService.MyCurations(userID, viewerID(c), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, curations)
}
