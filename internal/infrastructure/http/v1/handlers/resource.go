package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/id"
	"kadryhr/internal/domain"
)

// ResourceService is the tenant-scoped CRUD surface a resource service exposes.
type ResourceService[T any, Q any] interface {
	Create(ctx context.Context, e T) (T, error)
	Get(ctx context.Context, entityID id.ID) (T, error)
	List(ctx context.Context, q Q) (domain.ListResult[T], error)
	Update(ctx context.Context, entityID id.ID, mutate func(ctx context.Context, e T) error) (T, error)
	Delete(ctx context.Context, entityID id.ID) error
}

// ResourceHandler provides generic HTTP handlers for one resource.
// The organisation never comes from the request: services read it from the caller identity.
type ResourceHandler[T any, Q any, C any, U any] struct {
	*BaseHandler
	service ResourceService[T, Q]

	mapCreate   func(req *C) (T, error)
	applyUpdate func(req *U, e T) error
}

// ResourceHandlerConfig configures the resource handler.
type ResourceHandlerConfig[T any, Q any, C any, U any] struct {
	Service     ResourceService[T, Q]
	MapCreate   func(req *C) (T, error)
	ApplyUpdate func(req *U, e T) error
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler[T any, Q any, C any, U any](
	base *BaseHandler,
	cfg ResourceHandlerConfig[T, Q, C, U],
) *ResourceHandler[T, Q, C, U] {
	return &ResourceHandler[T, Q, C, U]{
		BaseHandler: base,
		service:     cfg.Service,
		mapCreate:   cfg.MapCreate,
		applyUpdate: cfg.ApplyUpdate,
	}
}

// List handles GET /{resource}.
func (h *ResourceHandler[T, Q, C, U]) List(c *gin.Context) {
	var q Q
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /{resource}/:id.
func (h *ResourceHandler[T, Q, C, U]) Get(c *gin.Context) {
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Create handles POST /{resource}.
func (h *ResourceHandler[T, Q, C, U]) Create(c *gin.Context) {
	var req C
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.mapCreate(&req)
	if err != nil {
		h.Error(c, err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), e)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

// Update handles PATCH /{resource}/:id. Only fields present in the body change.
func (h *ResourceHandler[T, Q, C, U]) Update(c *gin.Context) {
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req U
	if !h.BindJSON(c, &req) {
		return
	}
	updated, err := h.service.Update(c.Request.Context(), entityID, func(_ context.Context, e T) error {
		return h.applyUpdate(&req, e)
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /{resource}/:id. A second delete of the same id is 404.
func (h *ResourceHandler[T, Q, C, U]) Delete(c *gin.Context) {
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "")
}

// Transition returns a handler for POST /{resource}/:id/{verb}.
func (h *ResourceHandler[T, Q, C, U]) Transition(fn func(ctx context.Context, entityID id.ID) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityID, ok := h.PathID(c)
		if !ok {
			return
		}
		e, err := fn(c.Request.Context(), entityID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, e)
	}
}
