package security

import "sort"

// Action names an operation guarded by the role gate, as "<resource>:<verb>".
type Action string

const (
	EmployeeRead   Action = "employee:read"
	EmployeeCreate Action = "employee:create"
	EmployeeUpdate Action = "employee:update"
	EmployeeDelete Action = "employee:delete"

	LocationRead   Action = "location:read"
	LocationCreate Action = "location:create"
	LocationUpdate Action = "location:update"
	LocationDelete Action = "location:delete"

	ShiftRead   Action = "shift:read"
	ShiftCreate Action = "shift:create"
	ShiftUpdate Action = "shift:update"
	ShiftDelete Action = "shift:delete"

	AvailabilityRead    Action = "availability:read"
	AvailabilityCreate  Action = "availability:create"
	AvailabilityUpdate  Action = "availability:update"
	AvailabilityApprove Action = "availability:approve"
	AvailabilityDelete  Action = "availability:delete"

	LeaveRead    Action = "leave:read"
	LeaveCreate  Action = "leave:create"
	LeaveCancel  Action = "leave:cancel"
	LeaveApprove Action = "leave:approve"
	LeaveDelete  Action = "leave:delete"

	TimeEventClock Action = "rcp:clock"
	TimeEventRead  Action = "rcp:read"

	AuditRead Action = "audit:read"

	UserRead   Action = "user:read"
	UserCreate Action = "user:create"
	UserRole   Action = "user:role"

	OrganisationRead   Action = "organisation:read"
	OrganisationUpdate Action = "organisation:update"
)

// Permissions maps every guarded action to the minimum role allowed to perform it.
var Permissions = map[Action]Role{
	EmployeeRead:   RoleEmployee,
	EmployeeCreate: RoleAdmin,
	EmployeeUpdate: RoleAdmin,
	EmployeeDelete: RoleAdmin,

	LocationRead:   RoleEmployee,
	LocationCreate: RoleAdmin,
	LocationUpdate: RoleAdmin,
	LocationDelete: RoleAdmin,

	ShiftRead:   RoleEmployee,
	ShiftCreate: RoleManager,
	ShiftUpdate: RoleManager,
	ShiftDelete: RoleManager,

	AvailabilityRead:    RoleEmployee,
	AvailabilityCreate:  RoleEmployee,
	AvailabilityUpdate:  RoleManager,
	AvailabilityApprove: RoleManager,
	AvailabilityDelete:  RoleManager,

	LeaveRead:    RoleEmployee,
	LeaveCreate:  RoleEmployee,
	LeaveCancel:  RoleEmployee,
	LeaveApprove: RoleManager,
	LeaveDelete:  RoleAdmin,

	TimeEventClock: RoleEmployee,
	TimeEventRead:  RoleManager,

	AuditRead: RoleManager,

	UserRead:   RoleManager,
	UserCreate: RoleAdmin,
	UserRole:   RoleAdmin,

	OrganisationRead:   RoleEmployee,
	OrganisationUpdate: RoleOwner,
}

// Allowed reports whether role may perform action. Unlisted actions are denied.
func Allowed(role Role, action Action) bool {
	required, ok := Permissions[action]
	if !ok {
		return false
	}
	return role.Includes(required)
}

// ActionsFor returns every action role may perform, sorted.
func ActionsFor(role Role) []Action {
	actions := make([]Action, 0, len(Permissions))
	for action := range Permissions {
		if Allowed(role, action) {
			actions = append(actions, action)
		}
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
