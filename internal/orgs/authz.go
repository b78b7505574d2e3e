package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
	"gorm.io/gorm"
)

// hasOrgPermission reports whether the user holds the given permission
// in the organization. The owner implicitly holds every permission.
// Evaluate inside the same transaction as any dependent write.
func (s *Service) hasOrgPermission(tx *gorm.DB, orgID, userID uuid.UUID, perm models.Permission) (bool, error) {
	var member models.Member
	if res := tx.First(&member, "organization_id = ? AND user_id = ?", orgID, userID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, res.Error
	}
	if member.IsOwner {
		return true, nil
	}
	var count int64
	res := tx.Model(&models.RolePermission{}).
		Where("organization_id = ? AND role_id = ? AND permission = ?", orgID, member.RoleID, perm).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

// requirePermission is the standard gate: ErrPermissionDenied unless
// the user is the owner or holds perm.
func (s *Service) requirePermission(tx *gorm.DB, orgID, userID uuid.UUID, perm models.Permission) error {
	ok, err := s.hasOrgPermission(tx, orgID, userID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// requireOwnerOrAdminTier gates operations reserved for the owner or
// admin-tier role holders, such as granting admin-tier roles through
// invitations.
func (s *Service) requireOwnerOrAdminTier(tx *gorm.DB, orgID, userID uuid.UUID) error {
	var member models.Member
	if res := tx.Preload("Role").First(&member, "organization_id = ? AND user_id = ?", orgID, userID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrPermissionDenied
		}
		return res.Error
	}
	if member.IsOwner {
		return nil
	}
	if member.Role != nil && member.Role.AdminTier() {
		return nil
	}
	return ErrPermissionDenied
}

// hasMultipleRoleManageHolders reports whether more than one role in
// the organization currently holds role.manage.
func (s *Service) hasMultipleRoleManageHolders(tx *gorm.DB, orgID uuid.UUID) (bool, error) {
	var count int64
	res := tx.Model(&models.RolePermission{}).
		Where("organization_id = ? AND permission = ?", orgID, models.PermissionRoleManage).
		Distinct("role_id").
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 1, nil
}

// HasOrgPermission is the read-only authorization primitive for
// callers outside a transaction.
func (s *Service) HasOrgPermission(ctx context.Context, orgID, userID uuid.UUID, perm models.Permission) (bool, error) {
	ok, err := s.hasOrgPermission(s.db.WithContext(ctx), orgID, userID, perm)
	if err != nil {
		return false, wrapStorage(err)
	}
	return ok, nil
}

// HasMultipleRoleManageHolders is the read-only predicate variant. The
// permission engine recomputes it inside its own transaction, this is
// for advisory callers only.
func (s *Service) HasMultipleRoleManageHolders(ctx context.Context, orgID uuid.UUID) (bool, error) {
	ok, err := s.hasMultipleRoleManageHolders(s.db.WithContext(ctx), orgID)
	if err != nil {
		return false, wrapStorage(err)
	}
	return ok, nil
}
