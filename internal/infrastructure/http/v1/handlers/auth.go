package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kadryhr/internal/domain/auth"
	"kadryhr/internal/infrastructure/http/v1/dto"
	"kadryhr/internal/infrastructure/http/v1/middleware"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	Domain string
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
	cookie  CookieConfig
	now     func() time.Time
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
		cookie:      cookie,
		now:         time.Now,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, org, err := h.service.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.RegisterResponse{
		User:         dto.FromUser(user),
		Organisation: dto.FromOrganisation(org),
	})
}

// Login handles POST /auth/login and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	maxAge := int(result.ExpiresAt.Sub(h.now()).Seconds())
	h.setSessionCookie(c, result.SessionToken, maxAge)
	h.OK(c, dto.FromLoginResult(result))
}

// Logout handles POST /auth/logout. It revokes the session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}
	h.setSessionCookie(c, "", -1)
	h.NoContent(c)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProfile(profile))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
