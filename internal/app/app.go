// Package app wires the PostgreSQL-backed repositories into the domain services.
// It is shared by the API server, the worker and kadryctl.
package app

import (
	"context"
	"fmt"

	"kadryhr/internal/config"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/availability"
	"kadryhr/internal/domain/employee"
	"kadryhr/internal/domain/leave"
	"kadryhr/internal/domain/location"
	"kadryhr/internal/domain/organisation"
	"kadryhr/internal/domain/rcp"
	"kadryhr/internal/domain/shift"
	"kadryhr/internal/infrastructure/cache"
	v1 "kadryhr/internal/infrastructure/http/v1"
	"kadryhr/internal/infrastructure/storage/postgres"
	"kadryhr/internal/infrastructure/storage/postgres/auth_repo"
	"kadryhr/internal/infrastructure/storage/postgres/hr_repo"
)

// App holds the database handles and every domain service.
type App struct {
	Config *config.Config

	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Outbox      *postgres.OutboxPublisher
	Idempotency *postgres.IdempotencyStore
	OrgCache    *cache.Organisations
	Users       *auth_repo.UserRepo

	Recorder      *audit.Recorder
	Organisations *organisation.Service
	Auth          *auth.Service
	Employees     *employee.Service
	Locations     *location.Service
	Shifts        *shift.Service
	Availability  *availability.Service
	Leave         *leave.Service
	RCP           *rcp.Service
}

// New connects to the database and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &App{Config: cfg, Pool: pool}
	a.TxManager = postgres.NewTxManager(pool)
	a.Outbox = postgres.NewOutboxPublisher(a.TxManager)
	a.Idempotency = postgres.NewIdempotencyStore(a.TxManager, cfg.HTTP.IdempotencyTTL)
	a.OrgCache = cache.NewOrganisations(cfg.HTTP.OrganisationTTL, pool.Pool)

	auditRepo, err := postgres.NewAuditRepo(a.TxManager)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create audit repo: %w", err)
	}
	a.Recorder = audit.NewRecorder(auditRepo)

	a.Users = auth_repo.NewUserRepo(a.TxManager)
	users := a.Users
	a.Organisations = organisation.NewService(auth_repo.NewOrganisationRepo(a.TxManager), a.OrgCache, a.Recorder)

	jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	if cfg.Auth.AccessTokenTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.Auth.AccessTokenTTL
	}
	authCfg := auth.DefaultServiceConfig()
	authCfg.SessionTTL = cfg.Auth.SessionTTL
	if cfg.Auth.MaxLoginAttempts > 0 {
		authCfg.MaxLoginAttempts = cfg.Auth.MaxLoginAttempts
	}
	if cfg.Auth.LockDuration > 0 {
		authCfg.LockDuration = cfg.Auth.LockDuration
	}
	a.Auth = auth.NewService(auth.Deps{
		Users:         users,
		Sessions:      auth_repo.NewSessionRepo(a.TxManager),
		Organisations: a.Organisations,
		TxManager:     a.TxManager,
		JWT:           auth.NewJWTService(jwtCfg),
		Recorder:      a.Recorder,
		Publisher:     a.Outbox,
	}, authCfg)

	a.Employees = employee.NewService(hr_repo.NewEmployeeRepo(a.TxManager), a.TxManager, a.Recorder, users)
	a.Locations = location.NewService(hr_repo.NewLocationRepo(a.TxManager), a.TxManager, a.Recorder)
	a.Shifts = shift.NewService(hr_repo.NewShiftRepo(a.TxManager), a.TxManager, a.Recorder, a.Employees, a.Locations)
	a.Availability = availability.NewService(hr_repo.NewAvailabilityRepo(a.TxManager), a.TxManager, a.Recorder, a.Employees)
	a.Leave = leave.NewService(hr_repo.NewLeaveRepo(a.TxManager), a.TxManager, a.Recorder, a.Employees, a.Outbox)
	a.RCP = rcp.NewService(hr_repo.NewTimeEventRepo(a.TxManager), a.TxManager, a.Recorder, a.Employees)
	a.Employees.RestrictDelete("shifts", a.Shifts)
	a.Employees.RestrictDelete("availability", a.Availability)
	a.Employees.RestrictDelete("leave requests", a.Leave)
	a.Employees.RestrictDelete("time events", a.RCP)
	a.Locations.RestrictDelete("shifts", a.Shifts)

	return a, nil
}

// Services returns the services exposed by the HTTP API.
func (a *App) Services() v1.Services {
	return v1.Services{
		Auth:          a.Auth,
		Organisations: a.Organisations,
		Recorder:      a.Recorder,
		Employees:     a.Employees,
		Locations:     a.Locations,
		Shifts:        a.Shifts,
		Availability:  a.Availability,
		Leave:         a.Leave,
		RCP:           a.RCP,
	}
}

// Close stops the organisation cache and closes the pool.
func (a *App) Close() {
	a.OrgCache.Stop()
	a.Pool.Close()
}
