// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/security"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/availability"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/leave"
	"kadryhr/internal/domain/location"
	"kadryhr/internal/domain/organisation"
	"kadryhr/internal/domain/rcp"
	"kadryhr/internal/domain/shift"
	"kadryhr/internal/infrastructure/http/v1/dto"
	"kadryhr/internal/infrastructure/http/v1/handlers"
	"kadryhr/internal/infrastructure/http/v1/middleware"
	"kadryhr/pkg/logger"
)

// Services are the domain services the API exposes.
type Services struct {
	Auth          *auth.Service
	Organisations *organisation.Service
	Recorder      *audit.Recorder
	Employees     *employee.Service
	Locations     *location.Service
	Shifts        *shift.Service
	Availability  *availability.Service
	Leave         *leave.Service
	RCP           *rcp.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Logger for request logging
	Logger *logger.Logger

	// DB backs the readiness probe. Nil reports "not configured".
	DB handlers.Pinger

	// Idempotency enables X-Idempotency-Key replay when set.
	Idempotency middleware.IdempotencyStore

	// Metrics registers HTTP collectors and serves /metrics when set.
	Metrics *prometheus.Registry

	// LoginRatePerMinute limits login attempts per client IP.
	LoginRatePerMinute int

	Cookie  handlers.CookieConfig
	Version string
}

var registerValidation sync.Once

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidation.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(validation.JSONTagName)
		}
	})
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	if cfg.Metrics != nil {
		router.Use(middleware.NewMetrics(cfg.Metrics).Instrument())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics, promhttp.HandlerOpts{})))
	}
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		if cfg.Services.Auth != nil {
			health.GET("/info", middleware.OptionalAuth(cfg.Services.Auth), healthHandler.Info)
		} else {
			health.GET("/info", healthHandler.Info)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("Route", c.Request.URL.Path))
	})

	base := handlers.NewBaseHandler()
	api := router.Group("/api/v1")

	registerAuthRoutes(api, base, cfg)

	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.Services.Auth))
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}

	registerHRRoutes(protected, base, cfg.Services)
	registerAdminRoutes(protected, base, cfg.Services)

	return router
}

// NewHandler wraps the router with CORS for the panel origins.
// Credentials are allowed so the session cookie reaches the API.
func NewHandler(engine http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return engine
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderIdempotencyKey, middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(engine)
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAuthHandler(base, cfg.Services.Auth, cfg.Cookie)

	public := api.Group("/auth")
	public.POST("/login", middleware.RateLimit(middleware.NewIPRateLimiter(cfg.LoginRatePerMinute)), h.Login)
	public.POST("/register", middleware.RateLimit(middleware.NewIPRateLimiter(cfg.LoginRatePerMinute)), h.Register)

	protected := api.Group("/auth")
	protected.Use(middleware.Auth(cfg.Services.Auth))
	protected.GET("/me", h.Me)
	protected.POST("/logout", h.Logout)
}

// registerHRRoutes registers the tenant-scoped HR resources.
func registerHRRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	employees := handlers.NewResourceHandler(base, handlers.ResourceHandlerConfig[*employee.Employee, employee.ListQuery, dto.CreateEmployeeRequest, dto.UpdateEmployeeRequest]{
		Service:     s.Employees,
		MapCreate:   (*dto.CreateEmployeeRequest).ToEntity,
		ApplyUpdate: (*dto.UpdateEmployeeRequest).ApplyTo,
	})
	RegisterResourceRoutes(rg.Group("/employees"), employees, ResourcePermissions{
		Read:   security.EmployeeRead,
		Create: security.EmployeeCreate,
		Update: security.EmployeeUpdate,
		Delete: security.EmployeeDelete,
	})

	locations := handlers.NewResourceHandler(base, handlers.ResourceHandlerConfig[*location.Location, location.ListQuery, dto.CreateLocationRequest, dto.UpdateLocationRequest]{
		Service:     s.Locations,
		MapCreate:   (*dto.CreateLocationRequest).ToEntity,
		ApplyUpdate: (*dto.UpdateLocationRequest).ApplyTo,
	})
	RegisterResourceRoutes(rg.Group("/locations"), locations, ResourcePermissions{
		Read:   security.LocationRead,
		Create: security.LocationCreate,
		Update: security.LocationUpdate,
		Delete: security.LocationDelete,
	})

	shifts := handlers.NewResourceHandler(base, handlers.ResourceHandlerConfig[*shift.Shift, shift.ListQuery, dto.CreateShiftRequest, dto.UpdateShiftRequest]{
		Service:     s.Shifts,
		MapCreate:   (*dto.CreateShiftRequest).ToEntity,
		ApplyUpdate: (*dto.UpdateShiftRequest).ApplyTo,
	})
	RegisterResourceRoutes(rg.Group("/shifts"), shifts, ResourcePermissions{
		Read:   security.ShiftRead,
		Create: security.ShiftCreate,
		Update: security.ShiftUpdate,
		Delete: security.ShiftDelete,
	})

	avail := handlers.NewResourceHandler(base, handlers.ResourceHandlerConfig[*availability.Availability, availability.ListQuery, dto.CreateAvailabilityRequest, dto.UpdateAvailabilityRequest]{
		Service:     s.Availability,
		MapCreate:   (*dto.CreateAvailabilityRequest).ToEntity,
		ApplyUpdate: (*dto.UpdateAvailabilityRequest).ApplyTo,
	})
	availGroup := rg.Group("/availability")
	RegisterResourceRoutes(availGroup, avail, ResourcePermissions{
		Read:   security.AvailabilityRead,
		Create: security.AvailabilityCreate,
		Update: security.AvailabilityUpdate,
		Delete: security.AvailabilityDelete,
	})
	availGroup.POST("/:id/approve", middleware.RequirePermission(security.AvailabilityApprove), avail.Transition(s.Availability.Approve))
	availGroup.POST("/:id/reject", middleware.RequirePermission(security.AvailabilityApprove), avail.Transition(s.Availability.Reject))

	leaves := handlers.NewResourceHandler(base, handlers.ResourceHandlerConfig[*leave.Request, leave.ListQuery, dto.CreateLeaveRequest, struct{}]{
		Service:   s.Leave,
		MapCreate: (*dto.CreateLeaveRequest).ToEntity,
	})
	leaveGroup := rg.Group("/leave-requests")
	RegisterResourceRoutes(leaveGroup, leaves, ResourcePermissions{
		Read:   security.LeaveRead,
		Create: security.LeaveCreate,
		Delete: security.LeaveDelete,
	})
	leaveGroup.POST("/:id/approve", middleware.RequirePermission(security.LeaveApprove), leaves.Transition(s.Leave.Approve))
	leaveGroup.POST("/:id/reject", middleware.RequirePermission(security.LeaveApprove), leaves.Transition(s.Leave.Reject))
	leaveGroup.POST("/:id/cancel", middleware.RequirePermission(security.LeaveCancel), leaves.Transition(s.Leave.Cancel))

	events := handlers.NewTimeEventHandler(base, s.RCP)
	rcpGroup := rg.Group("/rcp/events")
	rcpGroup.POST("", middleware.RequirePermission(security.TimeEventClock), events.Clock)
	rcpGroup.GET("", middleware.RequirePermission(security.TimeEventRead), events.List)
}

// registerAdminRoutes registers audit, user and organisation endpoints.
func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s Services) {
	auditHandler := handlers.NewAuditHandler(base, s.Recorder)
	rg.GET("/audit", middleware.RequirePermission(security.AuditRead), auditHandler.List)

	users := handlers.NewUserHandler(base, s.Auth)
	userGroup := rg.Group("/users")
	userGroup.GET("", middleware.RequirePermission(security.UserRead), users.List)
	userGroup.POST("", middleware.RequirePermission(security.UserCreate), users.Create)
	userGroup.PATCH("/:id/role", middleware.RequirePermission(security.UserRole), users.ChangeRole)

	orgs := handlers.NewOrganisationHandler(base, s.Organisations)
	rg.GET("/organisation", middleware.RequirePermission(security.OrganisationRead), orgs.Get)
	rg.PATCH("/organisation", middleware.RequirePermission(security.OrganisationUpdate), orgs.Update)
}
