package models

import (
	"github.com/google/uuid"
)

const (
	// MinHierarchyLevel is the highest authority a role can have.
	MinHierarchyLevel = 0
	// MaxHierarchyLevel is the lowest authority a role can have.
	MaxHierarchyLevel = 10
	// AdminTierLevel is the boundary of the admin tier: roles at this
	// level or above (numerically <=) carry elevated authority for
	// invitation role changes.
	AdminTierLevel = 2
)

// Role is a named authority tier within an organization. Lower
// hierarchy levels outrank higher ones; level 0 is owner-equivalent.
type Role struct {
	Base
	OrganizationID uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_roles_org_name" json:"organization_id"`
	Name           string            `gorm:"uniqueIndex:idx_roles_org_name" json:"name" example:"editor"`
	HierarchyLevel int               `json:"hierarchy_level" example:"2"`
	Permissions    []*RolePermission `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// AdminTier reports whether the role is in the admin tier.
func (r Role) AdminTier() bool {
	return r.HierarchyLevel <= AdminTierLevel
}

// RolePermission grants one permission kind to a role.
type RolePermission struct {
	RoleID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"role_id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index" json:"organization_id"`
	Permission     Permission `gorm:"primary_key" json:"permission" example:"role.manage"`
}

// AddRole is the request body to create a Role
type AddRole struct {
	Name           string `json:"name" example:"editor"`
	HierarchyLevel int    `json:"hierarchy_level" example:"2"`
}

// PatchRole is the request body to update a Role. Nil fields are left
// unchanged.
type PatchRole struct {
	Name           *string `json:"name,omitempty"`
	HierarchyLevel *int    `json:"hierarchy_level,omitempty"`
}

// UpdateRolePermissions is the request body to replace a role's
// permission set. An empty list clears all permissions.
type UpdateRolePermissions struct {
	Permissions []Permission `json:"permissions"`
}
