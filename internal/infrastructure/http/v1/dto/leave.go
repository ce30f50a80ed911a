package dto

import (
	"kadryhr/internal/domain/leave"
)

// CreateLeaveRequest files a leave request. Dates are YYYY-MM-DD, both inclusive.
type CreateLeaveRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Category   string `json:"category" binding:"required,oneof=paid sick unpaid other"`
	StartDate  string `json:"startDate" binding:"required"`
	EndDate    string `json:"endDate" binding:"required"`
	Reason     string `json:"reason" binding:"max=1000"`
}

// ToEntity converts to a new pending request.
func (r *CreateLeaveRequest) ToEntity() (*leave.Request, error) {
	var p refs
	req := leave.New(
		p.id("employeeId", r.EmployeeID),
		leave.Category(r.Category),
		p.date("startDate", r.StartDate),
		p.date("endDate", r.EndDate),
	)
	req.Reason = r.Reason
	return req, p.err()
}
