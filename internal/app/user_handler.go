package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService   service.UserService
	followService service.FollowService
}

func NewUserHandler(userService service.UserService, followService service.FollowService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
	}
}

// GetMe returns the authenticated user
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "User retrieved successfully", gin.H{"user": user})
}

// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "User retrieved successfully", gin.H{"user": user})
}

// SearchUsers matches nickname or email
// GET /api/v1/users/search?q=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	page := util.ParsePage(c)
	users, total, err := h.userService.SearchUsers(c.Query("q"), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, users)
}

// UpdateProfile changes nickname, introduction, or the profile image sent
// as multipart under "image"
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		util.BindError(c, err)
		return
	}
	image, err := readUpload(c, "image")
	if err != nil {
		handleServiceError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req, image)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

// ToggleFollow follows the :id user, or unfollows when already following
// POST /api/v1/users/:id/follow
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.followService.Toggle(userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	message := "Unfollowed successfully"
	if result.Following {
		message = "Followed successfully"
	}
	util.SuccessResponse(c, http.StatusOK, message, result)
}

// GET /api/v1/users/:id/follow
func (h *UserHandler) FollowStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	following, err := h.followService.IsFollowing(userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Follow status retrieved successfully", gin.H{"following": following})
}

// GetFollowers lists who follows :id, optionally filtered by nickname with ?q=
// GET /api/v1/users/:id/followers
func (h *UserHandler) GetFollowers(c *gin.Context) {
	page := util.ParsePage(c)
	users, total, err := h.followService.GetFollowers(c.Param("id"), c.Query("q"), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, users)
}

// GET /api/v1/users/:id/following
func (h *UserHandler) GetFollowing(c *gin.Context) {
	page := util.ParsePage(c)
	users, total, err := h.followService.GetFollowing(c.Param("id"), c.Query("q"), page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, users)
}
