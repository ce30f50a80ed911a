package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kadryhr/internal/core/apperror"
	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/core/tenant"
	"kadryhr/internal/core/tx"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/notification"
	"kadryhr/internal/domain/organisation"
	"kadryhr/pkg/logger"
)

// EntityType is the audit entity type of users.
const EntityType = "user"

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	SessionTTL        time.Duration
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		SessionTTL:        7 * 24 * time.Hour,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Organisations is the part of the organisation service auth depends on.
type Organisations interface {
	Create(ctx context.Context, org *organisation.Organisation) error
	Lookup(ctx context.Context, orgID id.ID) (*organisation.Organisation, error)
}

// Service provides authentication, session resolution and user management.
type Service struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
	orgs        Organisations
	txManager   tx.Manager
	jwtService  *JWTService
	recorder    *audit.Recorder
	publisher   notification.Publisher
	config      ServiceConfig
	now         func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Users         UserRepository
	Sessions      SessionRepository
	Organisations Organisations
	TxManager     tx.Manager
	JWT           *JWTService
	Recorder      *audit.Recorder
	Publisher     notification.Publisher
}

// NewService creates a new auth service.
func NewService(deps Deps, config ServiceConfig) *Service {
	txm := deps.TxManager
	if txm == nil {
		txm = tx.Passthrough
	}
	return &Service{
		userRepo:    deps.Users,
		sessionRepo: deps.Sessions,
		orgs:        deps.Organisations,
		txManager:   txm,
		jwtService:  deps.JWT,
		recorder:    deps.Recorder,
		publisher:   deps.Publisher,
		config:      config,
		now:         time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.jwtService.now = now
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	cost := s.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) checkPassword(errs *validation.Errors, password string) {
	errs.Check(len(password) >= s.config.PasswordMinLength, "password",
		fmt.Sprintf("must be at least %d characters", s.config.PasswordMinLength))
	errs.Check(len(password) <= 72, "password", "must be at most 72 characters")
}

// Register creates an organisation and its owner in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, *organisation.Organisation, error) {
	email := NormalizeEmail(in.Email)

	var errs validation.Errors
	errs.Required("organisationName", in.OrganisationName)
	errs.Required("email", email)
	errs.Email("email", email)
	s.checkPassword(&errs, in.Password)
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, nil, apperror.NewDuplicate("User", "email")
	}

	passwordHash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	org := organisation.New(in.OrganisationName, in.Slug)
	displayName := in.DisplayName
	if strings.TrimSpace(displayName) == "" {
		displayName = email
	}
	user := NewUser(org.ID, email, passwordHash, displayName, security.RoleOwner)
	if err := user.Validate(ctx); err != nil {
		return nil, nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.orgs.Create(ctx, org); err != nil {
			return err
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.recordUser(ctx, org.ID, user.ID, audit.VerbCreate, user.ID, nil, user)
	logger.Info(ctx, "organisation registered",
		"organisation_id", org.ID.String(),
		"user_id", user.ID.String())

	return user, org, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	invalid := apperror.NewUnauthorized("Invalid email or password")
	now := s.now().UTC()

	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, invalid
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := user.CanLogin(now); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			logger.Warn(ctx, "record failed login", "user_id", user.ID.String(), "error", err)
		}
		return nil, invalid
	}

	org, err := s.orgs.Lookup(ctx, user.OrganisationID)
	if err != nil {
		return nil, fmt.Errorf("load organisation: %w", err)
	}

	token, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	session := &Session{
		ID:             id.New(),
		TokenHash:      hashToken(token),
		UserID:         user.ID,
		OrganisationID: user.OrganisationID,
		ExpiresAt:      now.Add(s.config.SessionTTL),
		UserAgent:      truncate(in.UserAgent, 500),
		IPAddress:      in.IPAddress,
		CreatedAt:      now,
	}

	user.RecordSuccessfulLogin(now)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return s.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	accessToken, _, err := s.jwtService.GenerateAccessToken(session, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	logger.Info(ctx, "user logged in",
		"user_id", user.ID.String(),
		"organisation_id", user.OrganisationID.String())

	return &LoginResult{
		SessionToken: token,
		AccessToken:  accessToken,
		ExpiresAt:    session.ExpiresAt,
		User:         user,
		Organisation: org,
	}, nil
}

// Resolve turns a request credential into the caller identity.
// It never writes: reading a session does not extend it.
func (s *Service) Resolve(ctx context.Context, cred Credential) (*appctx.Identity, error) {
	if cred.Empty() {
		return nil, apperror.NewUnauthorized("Authentication required")
	}

	var (
		session *Session
		err     error
	)
	if cred.BearerToken != "" {
		claims, sessionID, perr := s.jwtService.ParseToken(cred.BearerToken)
		if perr != nil {
			if errors.Is(perr, ErrTokenExpired) {
				return nil, apperror.NewSessionExpired()
			}
			return nil, apperror.NewUnauthorized("Invalid access token").WithCause(perr)
		}
		session, err = s.sessionRepo.GetByID(ctx, sessionID)
		if err == nil && session.UserID.String() != claims.UserID {
			return nil, apperror.NewUnauthorized("Invalid access token")
		}
	} else {
		session, err = s.sessionRepo.GetByTokenHash(ctx, hashToken(cred.SessionToken))
	}
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Invalid session")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.ActiveAt(s.now()) {
		return nil, apperror.NewSessionExpired()
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("Invalid session")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("Account is disabled")
	}

	org, err := s.orgs.Lookup(ctx, user.OrganisationID)
	if err != nil {
		return nil, fmt.Errorf("load organisation: %w", err)
	}

	return &appctx.Identity{
		UserID:         user.ID,
		OrganisationID: user.OrganisationID,
		Email:          user.Email,
		Name:           user.Name(),
		Role:           user.Role,
		Tenant:         appctx.Tenant{ID: org.ID, Name: org.Name, Slug: org.Slug},
		SessionID:      session.ID,
	}, nil
}

// Logout revokes the caller's session.
func (s *Service) Logout(ctx context.Context) error {
	ident := appctx.GetIdentity(ctx)
	if ident == nil {
		return apperror.NewUnauthorized("Authentication required")
	}
	if err := s.sessionRepo.Revoke(ctx, ident.SessionID, s.now().UTC()); err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Me returns the caller with their organisation.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	orgID, userID, err := tenant.Scope(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetInOrganisation(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.Lookup(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Organisation: org}, nil
}

// CreateUser adds a user to the caller's organisation.
// The new role may not exceed the caller's own.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	orgID, actorID, err := tenant.Scope(ctx)
	if err != nil {
		return nil, err
	}
	if !appctx.GetRole(ctx).Includes(in.Role) {
		return nil, apperror.NewForbidden("Cannot grant a role above your own")
	}

	var errs validation.Errors
	s.checkPassword(&errs, in.Password)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(in.Email)
	passwordHash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := NewUser(orgID, email, passwordHash, in.DisplayName, in.Role)
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewDuplicate("User", "email")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if s.publisher == nil {
			return nil
		}
		orgName := ""
		if t := tenant.Current(ctx); t != nil {
			orgName = t.Name
		}
		return s.publisher.Publish(ctx, orgID, notification.KindWelcome, notification.Welcome{
			Email:            user.Email,
			DisplayName:      user.Name(),
			OrganisationName: orgName,
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordUser(ctx, orgID, actorID, audit.VerbCreate, user.ID, nil, user)
	return user, nil
}

// ListUsers lists the caller organisation's users.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]*User, int64, error) {
	orgID, _, err := tenant.Scope(ctx)
	if err != nil {
		return nil, 0, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	return s.userRepo.ListByOrganisation(ctx, orgID, filter)
}

// ChangeRole sets another user's role within the caller's organisation.
func (s *Service) ChangeRole(ctx context.Context, userID id.ID, role security.Role) (*User, error) {
	orgID, actorID, err := tenant.Scope(ctx)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperror.NewFieldValidation(apperror.FieldError{Field: "role", Message: "must be one of: owner, admin, manager, employee"})
	}
	if userID == actorID {
		return nil, apperror.NewForbidden("Cannot change your own role")
	}
	callerRole := appctx.GetRole(ctx)
	if !callerRole.Includes(role) {
		return nil, apperror.NewForbidden("Cannot grant a role above your own")
	}

	user, err := s.userRepo.GetInOrganisation(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if !callerRole.Includes(user.Role) {
		return nil, apperror.NewForbidden("Cannot change the role of a more privileged user")
	}

	before := *user
	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.recordUser(ctx, orgID, actorID, "ROLE_CHANGE", user.ID, &before, user)
	return user, nil
}

// CleanupSessions removes sessions that expired or were revoked before now.
func (s *Service) CleanupSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now().UTC())
}

func (s *Service) recordUser(ctx context.Context, orgID, actorID id.ID, verb string, userID id.ID, before, after *User) {
	if s.recorder == nil {
		return
	}
	entry := audit.Entry{
		OrganisationID: orgID,
		ActorID:        actorID,
		Action:         audit.Action(EntityType, verb),
		EntityType:     EntityType,
		EntityID:       userID,
	}
	if before != nil {
		entry.Before = audit.Snapshot(before)
	}
	if after != nil {
		entry.After = audit.Snapshot(after)
	}
	s.recorder.Record(context.WithoutCancel(ctx), entry)
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
