package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
	"gorm.io/gorm"
)

// CheckUserPermissions resolves a user's effective standing in the
// organization. A nil Access means the user is not a member.
func (s *Service) CheckUserPermissions(ctx context.Context, userID, orgID uuid.UUID) (*models.Access, error) {
	db := s.db.WithContext(ctx)
	var member models.Member
	if res := db.Preload("Role").First(&member, "organization_id = ? AND user_id = ?", orgID, userID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapStorage(res.Error)
	}
	var rows []models.RolePermission
	if res := db.Where("role_id = ?", member.RoleID).Find(&rows); res.Error != nil {
		return nil, wrapStorage(res.Error)
	}
	access := &models.Access{
		MemberID:    member.ID,
		RoleID:      member.RoleID,
		IsOwner:     member.IsOwner,
		Permissions: make([]models.Permission, 0, len(rows)),
	}
	if member.Role != nil {
		access.RoleName = member.Role.Name
		access.HierarchyLevel = member.Role.HierarchyLevel
	}
	for _, row := range rows {
		access.Permissions = append(access.Permissions, row.Permission)
	}
	return access, nil
}

// GetMembers lists the members of the organization. Any member may
// see the list; non-members are rejected.
func (s *Service) GetMembers(ctx context.Context, actingUserID, orgID uuid.UUID) ([]models.Member, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if res := db.Model(&models.Member{}).
		Where("organization_id = ? AND user_id = ?", orgID, actingUserID).
		Count(&count); res.Error != nil {
		return nil, wrapStorage(res.Error)
	}
	if count == 0 {
		return nil, ErrForbidden
	}
	var members []models.Member
	if res := db.Preload("User").Preload("Role").
		Where("organization_id = ?", orgID).
		Order("created_at").
		Find(&members); res.Error != nil {
		return nil, wrapStorage(res.Error)
	}
	return members, nil
}

// UpdateMemberRole changes a member's role. The acting user must be
// the owner or hold member.manage.
func (s *Service) UpdateMemberRole(ctx context.Context, actingUserID, orgID, memberID, roleID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "UpdateMemberRole")
	defer span.End()

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionMemberManage); err != nil {
			return err
		}
		var role models.Role
		if res := tx.First(&role, "id = ? AND organization_id = ?", roleID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "role"}
			}
			return res.Error
		}
		res := tx.Model(&models.Member{}).
			Where("id = ? AND organization_id = ?", memberID, orgID).
			Update("role_id", roleID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "member"}
		}
		return nil
	})
	return wrapStorage(err)
}

// RemoveMember deletes a membership. The owner membership cannot be
// removed.
func (s *Service) RemoveMember(ctx context.Context, actingUserID, orgID, memberID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "RemoveMember")
	defer span.End()

	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionMemberManage); err != nil {
			return err
		}
		var member models.Member
		if res := s.forUpdate(tx).First(&member, "id = ? AND organization_id = ?", memberID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "member"}
			}
			return res.Error
		}
		if member.IsOwner {
			return ErrCannotRemoveOwner
		}
		res := tx.Where("id = ? AND organization_id = ?", memberID, orgID).Delete(&models.Member{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Resource: "member"}
		}
		return nil
	})
	return wrapStorage(err)
}

// HasHigherRoleThan reports whether the acting user outranks the
// target user in the organization. Advisory only, for driving UI
// affordances; the write paths above are the enforcement boundary.
func (s *Service) HasHigherRoleThan(ctx context.Context, actingUserID, targetUserID, orgID uuid.UUID) (bool, error) {
	db := s.db.WithContext(ctx)
	load := func(userID uuid.UUID) (*models.Member, error) {
		var member models.Member
		if res := db.Preload("Role").First(&member, "organization_id = ? AND user_id = ?", orgID, userID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, res.Error
		}
		return &member, nil
	}
	acting, err := load(actingUserID)
	if err != nil {
		return false, wrapStorage(err)
	}
	target, err := load(targetUserID)
	if err != nil {
		return false, wrapStorage(err)
	}
	if acting == nil || target == nil || acting.Role == nil || target.Role == nil {
		return false, nil
	}
	if acting.IsOwner {
		return !target.IsOwner, nil
	}
	if target.IsOwner {
		return false, nil
	}
	return acting.Role.HierarchyLevel < target.Role.HierarchyLevel, nil
}
