package domaintest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"kadryhr/internal/core/apperror"
	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/audit"
	"kadryhr/internal/domain/auth"
	"kadryhr/internal/domain/organisation"
)

// AuditStore is an in-memory audit.Store.
type AuditStore struct {
	mu      sync.Mutex
	entries []audit.Entry

	// Err, when set, makes Append fail.
	Err error
}

// Append implements audit.Store.
func (s *AuditStore) Append(_ context.Context, e audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.entries = append(s.entries, e)
	return nil
}

// List implements audit.Store.
func (s *AuditStore) List(_ context.Context, f audit.Filter) (audit.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []audit.Entry
	for _, e := range s.entries {
		if e.OrganisationID != f.OrganisationID {
			continue
		}
		if f.EntityType != "" && e.EntityType != f.EntityType {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.EntityID != nil && e.EntityID != *f.EntityID {
			continue
		}
		if f.ActorID != nil && e.ActorID != *f.ActorID {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := min(f.Skip, len(matched))
	end := min(start+f.Take, len(matched))
	items := append([]audit.Entry{}, matched[start:end]...)
	return audit.Page{Items: items, Total: total, Skip: f.Skip, Take: f.Take}, nil
}

// Entries returns every appended entry in order.
func (s *AuditStore) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}

// ForEntity returns the entries recorded for entityID.
func (s *AuditStore) ForEntity(entityID id.ID) []audit.Entry {
	var out []audit.Entry
	for _, e := range s.Entries() {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// OrganisationRepo is an in-memory organisation.Repository.
type OrganisationRepo struct {
	mu   sync.Mutex
	orgs map[id.ID]organisation.Organisation

	// Gets counts GetByID calls.
	Gets int
}

// NewOrganisationRepo creates an empty repository.
func NewOrganisationRepo() *OrganisationRepo {
	return &OrganisationRepo{orgs: make(map[id.ID]organisation.Organisation)}
}

// Create implements organisation.Repository.
func (r *OrganisationRepo) Create(_ context.Context, org *organisation.Organisation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.Slug == org.Slug {
			return apperror.NewDuplicate("Organisation", "slug")
		}
	}
	r.orgs[org.ID] = *org
	return nil
}

// GetByID implements organisation.Repository.
func (r *OrganisationRepo) GetByID(_ context.Context, orgID id.ID) (*organisation.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gets++
	o, ok := r.orgs[orgID]
	if !ok {
		return nil, apperror.NewNotFound("Organisation", orgID.String())
	}
	return &o, nil
}

// GetBySlug implements organisation.Repository.
func (r *OrganisationRepo) GetBySlug(_ context.Context, slug string) (*organisation.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.Slug == slug {
			return &o, nil
		}
	}
	return nil, apperror.NewNotFound("Organisation", slug)
}

// SlugExists implements organisation.Repository.
func (r *OrganisationRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// UpdateName implements organisation.Repository.
func (r *OrganisationRepo) UpdateName(_ context.Context, orgID id.ID, name string) (*organisation.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[orgID]
	if !ok {
		return nil, apperror.NewNotFound("Organisation", orgID.String())
	}
	o.Name = name
	r.orgs[orgID] = o
	return &o, nil
}

// List implements organisation.Repository.
func (r *OrganisationRepo) List(_ context.Context) ([]*organisation.Organisation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*organisation.Organisation, 0, len(r.orgs))
	for _, o := range r.orgs {
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UserRepo is an in-memory auth.UserRepository.
type UserRepo struct {
	mu    sync.Mutex
	users map[id.ID]auth.User
}

// NewUserRepo creates an empty repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[id.ID]auth.User)}
}

// Create implements auth.UserRepository.
func (r *UserRepo) Create(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.NewDuplicate("User", "email")
		}
	}
	r.users[u.ID] = *u
	return nil
}

// GetByID implements auth.UserRepository.
func (r *UserRepo) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("User", userID.String())
	}
	return &u, nil
}

// GetByEmail implements auth.UserRepository.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("User", email)
}

// EmailExists implements auth.UserRepository.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Update implements auth.UserRepository.
func (r *UserRepo) Update(_ context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperror.NewNotFound("User", u.ID.String())
	}
	r.users[u.ID] = *u
	return nil
}

// GetInOrganisation implements auth.UserRepository.
func (r *UserRepo) GetInOrganisation(ctx context.Context, orgID, userID id.ID) (*auth.User, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.OrganisationID != orgID {
		return nil, apperror.NewNotFound("User", userID.String())
	}
	return u, nil
}

// ListByOrganisation implements auth.UserRepository.
func (r *UserRepo) ListByOrganisation(_ context.Context, orgID id.ID, f auth.UserFilter) ([]*auth.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*auth.User
	search := strings.ToLower(f.Search)
	for _, u := range r.users {
		if u.OrganisationID != orgID {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" && !strings.Contains(u.Email, search) && !strings.Contains(strings.ToLower(u.DisplayName), search) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	start := min(f.Offset, len(out))
	end := len(out)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(out))
	}
	return out[start:end], total, nil
}

// UserExists reports whether userID belongs to orgID.
func (r *UserRepo) UserExists(ctx context.Context, orgID, userID id.ID) (bool, error) {
	_, err := r.GetInOrganisation(ctx, orgID, userID)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// SessionRepo is an in-memory auth.SessionRepository.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[id.ID]auth.Session
}

// NewSessionRepo creates an empty repository.
func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[id.ID]auth.Session)}
}

// Create implements auth.SessionRepository.
func (r *SessionRepo) Create(_ context.Context, s *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

// GetByID implements auth.SessionRepository.
func (r *SessionRepo) GetByID(_ context.Context, sessionID id.ID) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("Session", sessionID.String())
	}
	return &s, nil
}

// GetByTokenHash implements auth.SessionRepository.
func (r *SessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			return &s, nil
		}
	}
	return nil, apperror.NewNotFound("Session", "token")
}

// Revoke implements auth.SessionRepository.
func (r *SessionRepo) Revoke(_ context.Context, sessionID id.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return apperror.NewNotFound("Session", sessionID.String())
	}
	s.RevokedAt = &at
	r.sessions[sessionID] = s
	return nil
}

// DeleteExpired implements auth.SessionRepository.
func (r *SessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.sessions {
		if s.ExpiresAt.Before(before) || (s.RevokedAt != nil && s.RevokedAt.Before(before)) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (r *SessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Message is a notification captured by Outbox.
type Message struct {
	OrganisationID id.ID
	Kind           string
	Payload        json.RawMessage
}

// Outbox is an in-memory notification.Publisher.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
}

// Publish implements notification.Publisher.
func (o *Outbox) Publish(_ context.Context, orgID id.ID, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, Message{OrganisationID: orgID, Kind: kind, Payload: data})
	return nil
}

// Messages returns the published messages.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}
