package hr_repo

import (
	"kadryhr/internal/domain"
	"kadryhr/internal/domain/availability"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/leave"
	"kadryhr/internal/domain/location"
	"kadryhr/internal/domain/rcp"
	"kadryhr/internal/domain/shift"
	"kadryhr/internal/infrastructure/storage/postgres"
)

// Table names.
const (
	EmployeeTable     = "employees"
	LocationTable     = "locations"
	ShiftTable        = "shifts"
	AvailabilityTable = "availability"
	LeaveTable        = "leave_requests"
	TimeEventTable    = "time_events"
)

var (
	_ domain.ScopedRepository[*employee.Employee]         = (*ScopedRepo[*employee.Employee])(nil)
	_ domain.ScopedRepository[*location.Location]         = (*ScopedRepo[*location.Location])(nil)
	_ domain.ScopedRepository[*shift.Shift]               = (*ScopedRepo[*shift.Shift])(nil)
	_ domain.ScopedRepository[*availability.Availability] = (*ScopedRepo[*availability.Availability])(nil)
	_ domain.ScopedRepository[*leave.Request]             = (*ScopedRepo[*leave.Request])(nil)
	_ domain.ScopedRepository[*rcp.Event]                 = (*ScopedRepo[*rcp.Event])(nil)
)

// NewEmployeeRepo creates the employee repository.
func NewEmployeeRepo(txm *postgres.TxManager) *ScopedRepo[*employee.Employee] {
	return NewScopedRepo(txm, Config[*employee.Employee]{
		Table:        EmployeeTable,
		EntityName:   "Employee",
		SearchCols:   []string{"first_name", "last_name", "email"},
		DefaultOrder: "last_name ASC, first_name ASC, id ASC",
		New:          func() *employee.Employee { return &employee.Employee{} },
	})
}

// NewLocationRepo creates the location repository.
func NewLocationRepo(txm *postgres.TxManager) *ScopedRepo[*location.Location] {
	return NewScopedRepo(txm, Config[*location.Location]{
		Table:        LocationTable,
		EntityName:   "Location",
		SearchCols:   []string{"name", "address"},
		DefaultOrder: "name ASC, id ASC",
		New:          func() *location.Location { return &location.Location{} },
	})
}

// NewShiftRepo creates the shift repository.
func NewShiftRepo(txm *postgres.TxManager) *ScopedRepo[*shift.Shift] {
	return NewScopedRepo(txm, Config[*shift.Shift]{
		Table:        ShiftTable,
		EntityName:   "Shift",
		SearchCols:   []string{"position", "notes"},
		DefaultOrder: "starts_at ASC, id ASC",
		New:          func() *shift.Shift { return &shift.Shift{} },
	})
}

// NewAvailabilityRepo creates the availability repository.
func NewAvailabilityRepo(txm *postgres.TxManager) *ScopedRepo[*availability.Availability] {
	return NewScopedRepo(txm, Config[*availability.Availability]{
		Table:        AvailabilityTable,
		EntityName:   "Availability",
		SearchCols:   []string{"notes"},
		DefaultOrder: "date ASC NULLS LAST, weekday ASC, start_minutes ASC, id ASC",
		New:          func() *availability.Availability { return &availability.Availability{} },
	})
}

// NewLeaveRepo creates the leave request repository.
func NewLeaveRepo(txm *postgres.TxManager) *ScopedRepo[*leave.Request] {
	return NewScopedRepo(txm, Config[*leave.Request]{
		Table:        LeaveTable,
		EntityName:   "Leave request",
		SearchCols:   []string{"reason"},
		DefaultOrder: "start_date ASC, id ASC",
		New:          func() *leave.Request { return &leave.Request{} },
	})
}

// NewTimeEventRepo creates the time-and-attendance event repository.
func NewTimeEventRepo(txm *postgres.TxManager) *ScopedRepo[*rcp.Event] {
	return NewScopedRepo(txm, Config[*rcp.Event]{
		Table:        TimeEventTable,
		EntityName:   "Time event",
		DefaultOrder: "occurred_at DESC, id DESC",
		New:          func() *rcp.Event { return &rcp.Event{} },
	})
}
