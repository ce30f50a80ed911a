package handlers

import (
	"github.com/gin-gonic/gin"

	"kadryhr/internal/domain/rcp"
	"kadryhr/internal/infrastructure/http/v1/dto"
)

// TimeEventHandler records and lists attendance events.
type TimeEventHandler struct {
	*BaseHandler
	service *rcp.Service
}

// NewTimeEventHandler creates a new time event handler.
func NewTimeEventHandler(base *BaseHandler, service *rcp.Service) *TimeEventHandler {
	return &TimeEventHandler{BaseHandler: base, service: service}
}

// Clock handles POST /rcp/events.
func (h *TimeEventHandler) Clock(c *gin.Context) {
	var req dto.ClockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	recorded, err := h.service.Record(c.Request.Context(), e)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, recorded)
}

// List handles GET /rcp/events.
func (h *TimeEventHandler) List(c *gin.Context) {
	var q rcp.ListQuery
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
