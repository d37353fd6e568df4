package domain

import "time"

// Role determines a user's privileges.
type Role string

const (
	// RoleUser is a regular account: sees own and public documents.
	RoleUser Role = "user"

	// RoleAdmin sees every document and may publish public uploads.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account that owns documents and asks questions.
// Transport-level authentication (tokens, sessions) is out of scope;
// the core only needs identity and role.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// Username is the unique login name.
	Username string

	// Email is the contact address.
	Email string

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string

	// Role is user or admin.
	Role Role

	// Active is false for deactivated accounts.
	Active bool

	CreatedAt time.Time
	LastLogin time.Time
}

// AccessScope is the set of document IDs a caller may retrieve from.
// It is computed fresh for every query and never cached across requests.
type AccessScope struct {
	// All grants unrestricted access (admin role).
	All bool

	// DocumentIDs enumerates the visible documents when All is false.
	DocumentIDs map[string]struct{}
}

// NewAccessScope builds a scope over an explicit document ID set.
func NewAccessScope(ids []string) AccessScope {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AccessScope{DocumentIDs: set}
}

// AllDocuments is the unrestricted scope.
func AllDocuments() AccessScope {
	return AccessScope{All: true}
}

// Allows reports whether the scope covers the given document.
func (s AccessScope) Allows(documentID string) bool {
	if s.All {
		return true
	}
	_, ok := s.DocumentIDs[documentID]
	return ok
}

// Empty reports whether the scope covers no documents at all.
func (s AccessScope) Empty() bool {
	return !s.All && len(s.DocumentIDs) == 0
}

// IDs returns the enumerated document IDs, or nil for an unrestricted scope.
func (s AccessScope) IDs() []string {
	if s.All {
		return nil
	}
	ids := make([]string, 0, len(s.DocumentIDs))
	for id := range s.DocumentIDs {
		ids = append(ids, id)
	}
	return ids
}
