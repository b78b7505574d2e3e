package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
	"gorm.io/gorm"
)

// UpdateRolePermissions replaces the role's permission set with the
// given one. Removing role.manage from the last role holding it is
// rejected so the organization is never stranded without role
// management. An empty set is valid under the same guard.
func (s *Service) UpdateRolePermissions(ctx context.Context, orgID, roleID, actingUserID uuid.UUID, permissions []models.Permission) error {
	ctx, span := tracer.Start(ctx, "UpdateRolePermissions")
	defer span.End()

	requested := make(map[models.Permission]bool, len(permissions))
	for _, perm := range permissions {
		if !perm.Valid() {
			return &ValidationError{Field: "permissions", Reason: "unknown permission kind: " + perm.String()}
		}
		requested[perm] = true
	}

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionRoleManage); err != nil {
			return err
		}
		var role models.Role
		if res := s.forUpdate(tx).First(&role, "id = ? AND organization_id = ?", roleID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "role"}
			}
			return res.Error
		}

		var current []models.RolePermission
		if res := tx.Where("role_id = ?", roleID).Find(&current); res.Error != nil {
			return res.Error
		}
		currentSet := make(map[models.Permission]bool, len(current))
		for _, row := range current {
			currentSet[row.Permission] = true
		}

		var toDelete []models.Permission
		for perm := range currentSet {
			if !requested[perm] {
				toDelete = append(toDelete, perm)
			}
		}
		var toAdd []models.RolePermission
		for perm := range requested {
			if !currentSet[perm] {
				toAdd = append(toAdd, models.RolePermission{
					RoleID:         roleID,
					OrganizationID: orgID,
					Permission:     perm,
				})
			}
		}

		for _, perm := range toDelete {
			if perm == models.PermissionRoleManage {
				// Recomputed here, inside the same transaction as the
				// delete, never from a stale read.
				multiple, err := s.hasMultipleRoleManageHolders(tx, orgID)
				if err != nil {
					return err
				}
				if !multiple {
					return ErrLastRoleManageHolder
				}
			}
		}

		if len(toDelete) > 0 {
			if res := tx.Where("role_id = ? AND permission IN ?", roleID, toDelete).
				Delete(&models.RolePermission{}); res.Error != nil {
				return res.Error
			}
		}
		if len(toAdd) > 0 {
			if res := tx.Create(&toAdd); res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	return wrapStorage(err)
}

// ListRolePermissions returns the permission set currently granted to
// the role.
func (s *Service) ListRolePermissions(ctx context.Context, orgID, roleID uuid.UUID) ([]models.Permission, error) {
	db := s.db.WithContext(ctx)
	var role models.Role
	if res := db.First(&role, "id = ? AND organization_id = ?", roleID, orgID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "role"}
		}
		return nil, wrapStorage(res.Error)
	}
	var rows []models.RolePermission
	if res := db.Where("role_id = ?", roleID).Order("permission").Find(&rows); res.Error != nil {
		return nil, wrapStorage(res.Error)
	}
	permissions := make([]models.Permission, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, row.Permission)
	}
	return permissions, nil
}
