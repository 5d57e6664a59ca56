package domain

import (
	"strings"
	"time"
)

// Role gates admin-only operations.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFamily Role = "family"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleFamily
}

// UnknownName is shown when a profile join is missing.
const UnknownName = "Unknown"

// Profile represents a family member. Items and comments only keep a
// denormalized display snapshot (name, surname, avatar) taken at read time.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// FullName joins name and surname.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.Surname)
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// DisplayProfile builds the display snapshot for a referenced profile. When the
// join produced nothing the fallback id is kept and the name becomes "Unknown".
func DisplayProfile(joined *Profile, fallbackID string) Profile {
	if joined == nil || joined.ID == "" {
		return Profile{ID: fallbackID, Name: UnknownName}
	}
	out := Profile{
		ID:        joined.ID,
		Name:      joined.Name,
		Surname:   joined.Surname,
		AvatarURL: joined.AvatarURL,
	}
	if out.Name == "" {
		out.Name = UnknownName
	}
	return out
}

// Identity is the resolved caller handed over by the external auth collaborator.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

// Authenticated reports whether a session is present.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
