package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus is derived from ExpiresAt at read time, never stored.
type InvitationStatus string

const (
	InvitationStatusPending InvitationStatus = "pending"
	InvitationStatusExpired InvitationStatus = "expired"
)

// Invitation is a request for an email address to join an organization.
// At most one row exists per (organization, email); re-sending
// refreshes the existing row in place.
type Invitation struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invitations_org_email" json:"organization_id"`
	Email          string    `gorm:"uniqueIndex:idx_invitations_org_email" json:"email" example:"jane@example.com"`
	RoleID         uuid.UUID `gorm:"type:uuid;index" json:"role_id"`
	InviteToken    string    `json:"-"`
	InvitedBy      uuid.UUID `gorm:"type:uuid" json:"invited_by"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Status returns the derived invitation status at the given time.
func (i Invitation) Status(now time.Time) InvitationStatus {
	if i.ExpiresAt.Before(now) {
		return InvitationStatusExpired
	}
	return InvitationStatusPending
}

// AddInvitation is the request body to invite an email address.
type AddInvitation struct {
	Email  string    `json:"email" example:"jane@example.com"`
	RoleID uuid.UUID `json:"role_id"`
}

// PatchInvitation is the request body to change a pending invitation's role.
type PatchInvitation struct {
	RoleID uuid.UUID `json:"role_id"`
}

// InvitationWithStatus is the read shape for listings: the row plus its
// derived status.
type InvitationWithStatus struct {
	Invitation
	Status InvitationStatus `json:"status" example:"pending"`
}
