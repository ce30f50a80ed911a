package handlers

import (
	"github.com/gin-gonic/gin"

	"kadryhr/internal/domain/organisation"
	"kadryhr/internal/infrastructure/http/v1/dto"
)

// OrganisationHandler serves the caller's own organisation.
type OrganisationHandler struct {
	*BaseHandler
	service *organisation.Service
}

// NewOrganisationHandler creates a new organisation handler.
func NewOrganisationHandler(base *BaseHandler, service *organisation.Service) *OrganisationHandler {
	return &OrganisationHandler{BaseHandler: base, service: service}
}

// Get handles GET /organisation.
func (h *OrganisationHandler) Get(c *gin.Context) {
	org, err := h.service.Current(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrganisation(org))
}

// Update handles PATCH /organisation. Only the name can change.
func (h *OrganisationHandler) Update(c *gin.Context) {
	var req dto.UpdateOrganisationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	org, err := h.service.Rename(c.Request.Context(), req.Name)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromOrganisation(org))
}
