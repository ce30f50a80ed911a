package dto

import (
	"kadryhr/internal/domain/audit"
)

// AuditQuery holds the audit list parameters. Both skip/take and page/pageSize are accepted.
type AuditQuery struct {
	EntityType string `form:"entityType"`
	Action     string `form:"action"`
	EntityID   string `form:"entityId"`
	ActorID    string `form:"actorId"`
	Skip       *int   `form:"skip" binding:"omitempty,gte=0"`
	Take       *int   `form:"take" binding:"omitempty,gte=1"`
	Page       *int   `form:"page" binding:"omitempty,gte=1"`
	PageSize   *int   `form:"pageSize" binding:"omitempty,gte=1"`
}

// ToFilter converts to the domain filter and page query.
func (q *AuditQuery) ToFilter() (audit.Filter, audit.PageQuery, error) {
	var p refs
	f := audit.Filter{
		EntityType: q.EntityType,
		Action:     q.Action,
		EntityID:   p.optionalID("entityId", &q.EntityID),
		ActorID:    p.optionalID("actorId", &q.ActorID),
	}
	page := audit.PageQuery{Skip: q.Skip, Take: q.Take, Page: q.Page, PageSize: q.PageSize}
	return f, page, p.err()
}
