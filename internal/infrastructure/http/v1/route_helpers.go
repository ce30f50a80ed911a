package v1

import (
	"github.com/gin-gonic/gin"

	"kadryhr/internal/core/security"
	"kadryhr/internal/infrastructure/http/v1/middleware"
)

// ResourceRouteHandler defines the handlers of a CRUD resource.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// ResourcePermissions names the action guarding each CRUD route.
// An empty Update leaves PATCH unregistered.
type ResourcePermissions struct {
	Read   security.Action
	Create security.Action
	Update security.Action
	Delete security.Action
}

// RegisterResourceRoutes registers standard CRUD routes for a resource.
//
// Usage:
//
//	handler := handlers.NewResourceHandler(base, handlers.ResourceHandlerConfig[...]{...})
//	RegisterResourceRoutes(api.Group("/employees"), handler, ResourcePermissions{...})
func RegisterResourceRoutes(group *gin.RouterGroup, handler ResourceRouteHandler, perms ResourcePermissions) {
	group.GET("", middleware.RequirePermission(perms.Read), handler.List)
	group.POST("", middleware.RequirePermission(perms.Create), handler.Create)
	group.GET("/:id", middleware.RequirePermission(perms.Read), handler.Get)
	if perms.Update != "" {
		group.PATCH("/:id", middleware.RequirePermission(perms.Update), handler.Update)
	}
	group.DELETE("/:id", middleware.RequirePermission(perms.Delete), handler.Delete)
}
