package domaintest

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/security"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/availability"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/leave"
	"kadryhr/internal/domain/location"
	"kadryhr/internal/domain/organisation"
	"kadryhr/internal/domain/rcp"
	"kadryhr/internal/domain/shift"
)

// Password is the password of every member created by Env.
const Password = "password123"

// JWTSecret signs access tokens in tests.
const JWTSecret = "test-secret-with-at-least-32-bytes!!"

// Env wires every domain service over in-memory stores.
type Env struct {
	Audit    *AuditStore
	Recorder *audit.Recorder
	Outbox   *Outbox

	Orgs     *OrganisationRepo
	Users    *UserRepo
	Sessions *SessionRepo

	EmployeeRepo     *MemoryRepo[*employee.Employee]
	LocationRepo     *MemoryRepo[*location.Location]
	ShiftRepo        *MemoryRepo[*shift.Shift]
	AvailabilityRepo *MemoryRepo[*availability.Availability]
	LeaveRepo        *MemoryRepo[*leave.Request]
	EventRepo        *MemoryRepo[*rcp.Event]

	Organisations *organisation.Service
	Auth          *auth.Service
	Employees     *employee.Service
	Locations     *location.Service
	Shifts        *shift.Service
	Availability  *availability.Service
	Leave         *leave.Service
	RCP           *rcp.Service
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	e := &Env{
		Audit:            &AuditStore{},
		Outbox:           &Outbox{},
		Orgs:             NewOrganisationRepo(),
		Users:            NewUserRepo(),
		Sessions:         NewSessionRepo(),
		EmployeeRepo:     NewMemoryRepo[*employee.Employee]("first_name", "last_name", "email"),
		LocationRepo:     NewMemoryRepo[*location.Location]("name", "address"),
		ShiftRepo:        NewMemoryRepo[*shift.Shift](),
		AvailabilityRepo: NewMemoryRepo[*availability.Availability](),
		LeaveRepo:        NewMemoryRepo[*leave.Request](),
		EventRepo:        NewMemoryRepo[*rcp.Event](),
	}
	e.Recorder = audit.NewRecorder(e.Audit)
	txm := tx.Passthrough

	e.Organisations = organisation.NewService(e.Orgs, nil, e.Recorder)

	cfg := auth.DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	e.Auth = auth.NewService(auth.Deps{
		Users:         e.Users,
		Sessions:      e.Sessions,
		Organisations: e.Organisations,
		TxManager:     txm,
		JWT:           auth.NewJWTService(auth.DefaultJWTConfig(JWTSecret)),
		Recorder:      e.Recorder,
		Publisher:     e.Outbox,
	}, cfg)

	e.Employees = employee.NewService(e.EmployeeRepo, txm, e.Recorder, e.Users)
	e.Locations = location.NewService(e.LocationRepo, txm, e.Recorder)
	e.Shifts = shift.NewService(e.ShiftRepo, txm, e.Recorder, e.Employees, e.Locations)
	e.Availability = availability.NewService(e.AvailabilityRepo, txm, e.Recorder, e.Employees)
	e.Leave = leave.NewService(e.LeaveRepo, txm, e.Recorder, e.Employees, e.Outbox)
	e.RCP = rcp.NewService(e.EventRepo, txm, e.Recorder, e.Employees)
	e.Employees.RestrictDelete("shifts", e.Shifts)
	e.Employees.RestrictDelete("availability", e.Availability)
	e.Employees.RestrictDelete("leave requests", e.Leave)
	e.Employees.RestrictDelete("time events", e.RCP)
	e.Locations.RestrictDelete("shifts", e.Shifts)
	return e
}

// NewOrganisation stores an organisation named name.
func (e *Env) NewOrganisation(name string) *organisation.Organisation {
	org := organisation.New(name, "")
	if err := e.Orgs.Create(context.Background(), org); err != nil {
		panic(err)
	}
	return org
}

// Member is a user of an organisation together with a request context carrying their identity.
type Member struct {
	Org  *organisation.Organisation
	User *auth.User
	Ctx  context.Context
}

// NewMember stores a user with Password and returns their identity context.
func (e *Env) NewMember(org *organisation.Organisation, email string, role security.Role) Member {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := auth.NewUser(org.ID, email, string(hash), email, role)
	if err := e.Users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return Member{Org: org, User: user, Ctx: IdentityContext(org, user)}
}

// IdentityContext returns a context authenticated as user.
func IdentityContext(org *organisation.Organisation, user *auth.User) context.Context {
	return appctx.WithIdentity(context.Background(), &appctx.Identity{
		UserID:         user.ID,
		OrganisationID: org.ID,
		Email:          user.Email,
		Name:           user.Name(),
		Role:           user.Role,
		Tenant:         appctx.Tenant{ID: org.ID, Name: org.Name, Slug: org.Slug},
	})
}
