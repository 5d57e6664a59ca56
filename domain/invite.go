package domain

import (
	"net/mail"
	"strings"
	"time"
)

// DefaultInviteTTL is the validity window of a freshly created invite.
const DefaultInviteTTL = 7 * 24 * time.Hour

// InviteState is derived from accepted_at and expires_at.
type InviteState string

const (
	InvitePending  InviteState = "pending"
	InviteAccepted InviteState = "accepted"
	InviteExpired  InviteState = "expired"
)

// Invite is a single-use registration token issued by an admin.
type Invite struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Token      string     `json:"token"`
	InvitedBy  string     `json:"invited_by"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// State derives the lifecycle state at the reference time.
func (i *Invite) State(now time.Time) InviteState {
	if i.AcceptedAt != nil {
		return InviteAccepted
	}
	if !i.ExpiresAt.After(now) {
		return InviteExpired
	}
	return InvitePending
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail returns a field error for malformed addresses.
func ValidateEmail(email string) error {
	errs := fieldErrors{}
	if email == "" {
		errs.add("email", "email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs.add("email", "invalid email address")
	}
	return errs.err()
}

// ValidateRoleChange checks the update-role payload.
func ValidateRoleChange(userID string, role Role) error {
	errs := fieldErrors{}
	if strings.TrimSpace(userID) == "" {
		errs.add("userId", "user is required")
	}
	if !role.Valid() {
		errs.add("role", "role must be admin or family")
	}
	return errs.err()
}
