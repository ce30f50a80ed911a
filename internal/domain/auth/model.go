// Package auth provides authentication, sessions and user management.
package auth

import (
	"context"
	"strings"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
	"kadryhr/internal/core/validation"
	"kadryhr/internal/domain/organisation"
)

// User is a login account. Every user belongs to exactly one organisation.
type User struct {
	ID                  id.ID         `db:"id" json:"id"`
	OrganisationID      id.ID         `db:"organisation_id" json:"organisationId"`
	Email               string        `db:"email" json:"email"`
	PasswordHash        string        `db:"password_hash" json:"-"`
	DisplayName         string        `db:"display_name" json:"displayName"`
	Role                security.Role `db:"role" json:"role"`
	AvatarURL           string        `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsActive            bool          `db:"is_active" json:"isActive"`
	FailedLoginAttempts int           `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time    `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time    `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updatedAt"`
}

// NewUser creates an active user.
func NewUser(orgID id.ID, email, passwordHash, displayName string, role security.Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:             id.New(),
		OrganisationID: orgID,
		Email:          NormalizeEmail(email),
		PasswordHash:   passwordHash,
		DisplayName:    strings.TrimSpace(displayName),
		Role:           role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NormalizeEmail lowercases and trims an address. Emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	var errs validation.Errors
	errs.Required("email", u.Email)
	errs.Email("email", u.Email)
	errs.MaxLength("displayName", u.DisplayName, 200)
	errs.Check(u.Role.Valid(), "role", "must be one of: owner, admin, manager, employee")
	return errs.Err()
}

// Name returns the display name, falling back to the email.
func (u *User) Name() string {
	if u.DisplayName == "" {
		return u.Email
	}
	return u.DisplayName
}

// IsLocked returns true if account is locked at now.
func (u *User) IsLocked(now time.Time) bool {
	if u.LockedUntil == nil {
		return false
	}
	return now.Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin(now time.Time) error {
	if !u.IsActive {
		return apperror.NewForbidden("Account is disabled")
	}
	if u.IsLocked(now) {
		return apperror.NewForbidden("Account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter and locks after maxAttempts.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := now.Add(lockDuration)
		u.LockedUntil = &lockUntil
		u.FailedLoginAttempts = 0
	}
	u.UpdatedAt = now
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Session is a server-side login. Only the SHA-256 of its token is stored.
type Session struct {
	ID             id.ID      `db:"id"`
	TokenHash      string     `db:"token_hash"`
	UserID         id.ID      `db:"user_id"`
	OrganisationID id.ID      `db:"organisation_id"`
	ExpiresAt      time.Time  `db:"expires_at"`
	RevokedAt      *time.Time `db:"revoked_at"`
	UserAgent      string     `db:"user_agent"`
	IPAddress      string     `db:"ip_address"`
	CreatedAt      time.Time  `db:"created_at"`
}

// ActiveAt reports whether the session authorises a request at now.
func (s *Session) ActiveAt(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// Credential is what a request presents: a session cookie value, a bearer token, or both.
type Credential struct {
	SessionToken string
	BearerToken  string
}

// Empty reports whether no credential was presented.
func (c Credential) Empty() bool {
	return c.SessionToken == "" && c.BearerToken == ""
}

// LoginInput for Login.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	SessionToken string
	AccessToken  string
	ExpiresAt    time.Time
	User         *User
	Organisation *organisation.Organisation
}

// RegisterInput for signup. It creates an organisation and its owner.
type RegisterInput struct {
	OrganisationName string
	Slug             string
	Email            string
	Password         string
	DisplayName      string
}

// CreateUserInput for adding a user to the caller's organisation.
type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        security.Role
}

// Profile is the resolved caller with their organisation.
type Profile struct {
	User         *User
	Organisation *organisation.Organisation
}

// UserFilter for listing users.
type UserFilter struct {
	Search string
	Role   security.Role
	Limit  int
	Offset int
}
