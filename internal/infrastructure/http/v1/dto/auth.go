package dto

import (
	"time"

	appctx "kadryhr/internal/core/context"
	"kadryhr/internal/core/security"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/organisation"
)

// --- Request DTOs ---

// RegisterRequest creates an organisation together with its owner.
type RegisterRequest struct {
	OrganisationName string `json:"organisationName" binding:"required,max=200"`
	Slug             string `json:"slug" binding:"omitempty,max=63"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	DisplayName      string `json:"displayName" binding:"max=200"`
}

// ToInput converts to the domain input.
func (r *RegisterRequest) ToInput() auth.RegisterInput {
	return auth.RegisterInput{
		OrganisationName: r.OrganisationName,
		Slug:             r.Slug,
		Email:            r.Email,
		Password:         r.Password,
		DisplayName:      r.DisplayName,
	}
}

// LoginRequest for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest adds a user to the caller's organisation.
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"max=200"`
	Role        string `json:"role" binding:"required,oneof=owner admin manager employee"`
}

// ToInput converts to the domain input.
func (r *CreateUserRequest) ToInput() auth.CreateUserInput {
	return auth.CreateUserInput{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
		Role:        security.Role(r.Role),
	}
}

// ChangeRoleRequest sets a user's role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=owner admin manager employee"`
}

// UserListQuery holds the user list parameters.
type UserListQuery struct {
	Search string `form:"search"`
	Role   string `form:"role" binding:"omitempty,oneof=owner admin manager employee"`
	Limit  int    `form:"limit" binding:"gte=0"`
	Offset int    `form:"offset" binding:"gte=0"`
}

// ToFilter converts to the domain filter.
func (q *UserListQuery) ToFilter() auth.UserFilter {
	return auth.UserFilter{
		Search: q.Search,
		Role:   security.Role(q.Role),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
}

// --- Response DTOs ---

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID             string        `json:"id"`
	OrganisationID string        `json:"organisationId"`
	Email          string        `json:"email"`
	DisplayName    string        `json:"displayName"`
	Name           string        `json:"name"`
	Role           security.Role `json:"role"`
	AvatarURL      string        `json:"avatarUrl,omitempty"`
	IsActive       bool          `json:"isActive"`
	LastLoginAt    *time.Time    `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// FromUser creates a response from a domain user.
func FromUser(u *auth.User) *UserResponse {
	return &UserResponse{
		ID:             u.ID.String(),
		OrganisationID: u.OrganisationID.String(),
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Name:           u.Name(),
		Role:           u.Role,
		AvatarURL:      u.AvatarURL,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

// UserListResponse is a page of users.
type UserListResponse struct {
	Items      []*UserResponse `json:"items"`
	TotalCount int64           `json:"totalCount"`
}

// LoginResponse is returned by login. The session token itself travels only in the cookie.
type LoginResponse struct {
	AccessToken  string                `json:"accessToken"`
	ExpiresAt    time.Time             `json:"expiresAt"`
	TokenType    string                `json:"tokenType"`
	User         *UserResponse         `json:"user"`
	Organisation *OrganisationResponse `json:"organisation"`
}

// FromLoginResult creates a login response.
func FromLoginResult(r *auth.LoginResult) *LoginResponse {
	return &LoginResponse{
		AccessToken:  r.AccessToken,
		ExpiresAt:    r.ExpiresAt,
		TokenType:    "Bearer",
		User:         FromUser(r.User),
		Organisation: FromOrganisation(r.Organisation),
	}
}

// RegisterResponse is returned by signup.
type RegisterResponse struct {
	User         *UserResponse         `json:"user"`
	Organisation *OrganisationResponse `json:"organisation"`
}

// MeResponse is the resolved caller.
type MeResponse struct {
	ID             string            `json:"id"`
	OrganisationID string            `json:"organisationId"`
	Email          string            `json:"email"`
	Name           string            `json:"name"`
	Role           security.Role     `json:"role"`
	AvatarURL      string            `json:"avatarUrl,omitempty"`
	Tenant         appctx.Tenant     `json:"tenant"`
	Permissions    []security.Action `json:"permissions"`
}

// FromProfile creates the /auth/me response.
func FromProfile(p *auth.Profile) *MeResponse {
	return &MeResponse{
		ID:             p.User.ID.String(),
		OrganisationID: p.User.OrganisationID.String(),
		Email:          p.User.Email,
		Name:           p.User.Name(),
		Role:           p.User.Role,
		AvatarURL:      p.User.AvatarURL,
		Tenant: appctx.Tenant{
			ID:   p.Organisation.ID,
			Name: p.Organisation.Name,
			Slug: p.Organisation.Slug,
		},
		Permissions: security.ActionsFor(p.User.Role),
	}
}

// --- Organisation ---

// OrganisationResponse represents an organisation.
type OrganisationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromOrganisation creates a response from a domain organisation.
func FromOrganisation(o *organisation.Organisation) *OrganisationResponse {
	if o == nil {
		return nil
	}
	return &OrganisationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Slug:      o.Slug,
		CreatedAt: o.CreatedAt,
	}
}

// UpdateOrganisationRequest renames the caller's organisation. The slug is immutable.
type UpdateOrganisationRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}
