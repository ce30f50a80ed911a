package handlers

import (
	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/infrastructure/http/v1/dto"
)

// UserHandler manages the login users of the caller's organisation.
type UserHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewUserHandler creates a new user handler.
func NewUserHandler(base *BaseHandler, service *auth.Service) *UserHandler {
	return &UserHandler{BaseHandler: base, service: service}
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	var q dto.UserListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	users, total, err := h.service.ListUsers(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]*dto.UserResponse, len(users))
	for i, u := range users {
		items[i] = dto.FromUser(u)
	}
	h.OK(c, dto.UserListResponse{Items: items, TotalCount: total})
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromUser(user))
}

// ChangeRole handles PATCH /users/:id/role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	userID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.service.ChangeRole(c.Request.Context(), userID, security.Role(req.Role))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}
