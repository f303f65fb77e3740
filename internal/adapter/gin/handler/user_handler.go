package handler

import (
	"errors"
	"net/http"
	"strconv"

	"proximity-service/internal/usecase/user"
	pkgerrors "proximity-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc          user.Usecase
	seedCount   int
	seedCenters [][]float64
	log         *zap.Logger
}

// NewUserHandler creates a new UserHandler instance. seedCount and
// seedCenters parameterize the /users/load maintenance endpoint.
func NewUserHandler(uc user.Usecase, seedCount int, seedCenters [][]float64, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:          uc,
		seedCount:   seedCount,
		seedCenters: seedCenters,
		log:         log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user.
// "pass" matches the stored document's field name; it is accepted on the
// way in and never included in any response.
type CreateUserRequest struct {
	UID         int64     `json:"uid"`
	Name        string    `json:"name"`
	Pass        string    `json:"pass"`
	Age         *int      `json:"age"`
	Gender      *string   `json:"gender"`
	LookingForM *bool     `json:"looking_for_m"`
	LookingForF *bool     `json:"looking_for_f"`
	Loc         []float64 `json:"loc"`
}

// UpdateUserRequest represents the HTTP request body for a partial update
type UpdateUserRequest struct {
	Name        *string   `json:"name"`
	Pass        *string   `json:"pass"`
	Age         *int      `json:"age"`
	Gender      *string   `json:"gender"`
	LookingForM *bool     `json:"looking_for_m"`
	LookingForF *bool     `json:"looking_for_f"`
	Loc         []float64 `json:"loc"`
}

// UserResponse represents the sanitized HTTP response for user data
type UserResponse struct {
	UID         int64     `json:"uid"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	LookingForM bool      `json:"looking_for_m"`
	LookingForF bool      `json:"looking_for_f"`
	Loc         []float64 `json:"loc"`
}

// UserEnvelope wraps a single user response body
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// UsersEnvelope wraps a user list response body
type UsersEnvelope struct {
	Users []UserResponse `json:"users"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		UID:         u.UID,
		Name:        u.Name,
		Age:         u.Age,
		Gender:      u.Gender,
		LookingForM: u.LookingForM,
		LookingForF: u.LookingForF,
		Loc:         u.Loc,
	}
}

func toListResponse(users []user.User) UsersEnvelope {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = toResponse(&users[i])
	}
	return UsersEnvelope{Users: out}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("ListUsers failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(users))
}

// GetUser handles GET /users/:uid
func (h *UserHandler) GetUser(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), uid)
	if err != nil {
		h.log.Warn("GetUser failed", zap.Int64("uid", uid), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: toResponse(u)})
}

// GetUsersNear handles GET /users_near/:uid and GET /users_near?uid=.
// An optional radius query parameter is honored only in deployments that
// allow a caller-supplied radius.
func (h *UserHandler) GetUsersNear(c *gin.Context) {
	uidStr := c.Param("uid")
	if uidStr == "" {
		uidStr = c.Query("uid")
	}
	if uidStr == "" {
		h.log.Warn("users_near request without uid")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		h.log.Warn("invalid uid", zap.String("uid", uidStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	var radius float64
	if radiusStr := c.Query("radius"); radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius < 0 {
			h.log.Warn("invalid radius", zap.String("radius", radiusStr))
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
			return
		}
	}

	users, err := h.uc.FindUsersNear(c.Request.Context(), user.FindUsersNearRequest{
		UID:          uid,
		RadiusMeters: radius,
	})
	if err != nil {
		h.log.Warn("FindUsersNear failed", zap.Int64("uid", uid), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(users))
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	u, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		UID:         req.UID,
		Name:        req.Name,
		Password:    req.Pass,
		Age:         req.Age,
		Gender:      req.Gender,
		LookingForM: req.LookingForM,
		LookingForF: req.LookingForF,
		Loc:         req.Loc,
	})
	if err != nil {
		h.log.Warn("CreateUser failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserEnvelope{User: toResponse(u)})
}

// UpdateUser handles PUT /users/:uid
func (h *UserHandler) UpdateUser(c *gin.Context) {
	uid, ok := h.uidParam(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("invalid update user request", zap.Int64("uid", uid), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return
	}

	u, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		UID:         uid,
		Name:        req.Name,
		Password:    req.Pass,
		Age:         req.Age,
		Gender:      req.Gender,
		LookingForM: req.LookingForM,
		LookingForF: req.LookingForF,
		Loc:         req.Loc,
	})
	if err != nil {
		h.log.Warn("UpdateUser failed", zap.Int64("uid", uid), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: toResponse(u)})
}

// LoadUsers handles GET /users/load, the maintenance seed endpoint: it
// clears the store and loads the configured number of sample users.
func (h *UserHandler) LoadUsers(c *gin.Context) {
	users, err := h.uc.SeedSampleData(c.Request.Context(), h.seedCount, h.seedCenters)
	if err != nil {
		h.log.Error("LoadUsers failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(users))
}

// uidParam parses the :uid path parameter, answering 400 on garbage.
func (h *UserHandler) uidParam(c *gin.Context) (int64, bool) {
	uidStr := c.Param("uid")
	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		h.log.Warn("invalid uid", zap.String("uid", uidStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Bad request"})
		return 0, false
	}
	return uid, true
}

// handleError converts usecase errors to the fixed error bodies of the API
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var statuser pkgerrors.HTTPStatuser
	if errors.As(err, &statuser) {
		status := statuser.HTTPStatus()
		switch status {
		case http.StatusBadRequest:
			c.JSON(status, ErrorResponse{Error: "Bad request"})
		case http.StatusNotFound:
			c.JSON(status, ErrorResponse{Error: "Not found"})
		case http.StatusServiceUnavailable:
			c.JSON(status, ErrorResponse{Error: "Service unavailable"})
		default:
			c.JSON(status, ErrorResponse{Error: "Internal error"})
		}
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
}
