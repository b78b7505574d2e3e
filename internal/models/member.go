package models

import (
	"github.com/google/uuid"
)

// Member record means the user belongs to the organization with
// exactly one role. Exactly one member per organization is the owner.
type Member struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_members_org_user" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_members_org_user" json:"user_id"`
	RoleID         uuid.UUID `gorm:"type:uuid;index" json:"role_id"`
	IsOwner        bool      `json:"is_owner"`
	User           *User     `json:"user,omitempty"`
	Role           *Role     `json:"role,omitempty"`
}

// PatchMember is the request body to change a member's role.
type PatchMember struct {
	RoleID uuid.UUID `json:"role_id"`
}

// Access describes a user's effective standing in an organization.
type Access struct {
	MemberID       uuid.UUID    `json:"member_id"`
	RoleID         uuid.UUID    `json:"role_id"`
	RoleName       string       `json:"role_name"`
	HierarchyLevel int          `json:"hierarchy_level"`
	IsOwner        bool         `json:"is_owner"`
	Permissions    []Permission `json:"permissions"`
}
