package handlers

import (
	"github.com/gin-gonic/gin"

	"kadryhr/internal/domain/audit"
	"kadryhr/internal/infrastructure/http/v1/dto"
)

// AuditHandler lists the caller organisation's audit trail.
type AuditHandler struct {
	*BaseHandler
	recorder *audit.Recorder
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// List handles GET /audit, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	var q dto.AuditQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, page, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.recorder.List(c.Request.Context(), f, page)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
