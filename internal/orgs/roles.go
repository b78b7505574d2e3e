package orgs

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/database"
	"github.com/orghub-io/orghub/internal/models"
	"gorm.io/gorm"
)

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const maxRoleNameLength = 100

func validateRoleName(name string) error {
	if len(name) == 0 || len(name) > maxRoleNameLength {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be 1-%d characters", maxRoleNameLength)}
	}
	if !roleNamePattern.MatchString(name) {
		return &ValidationError{Field: "name", Reason: "must be lowercase letters, digits and underscores, starting with a letter"}
	}
	return nil
}

func validateHierarchyLevel(level int) error {
	if level < models.MinHierarchyLevel || level > models.MaxHierarchyLevel {
		return &ValidationError{
			Field:  "hierarchy_level",
			Reason: fmt.Sprintf("must be between %d and %d", models.MinHierarchyLevel, models.MaxHierarchyLevel),
		}
	}
	return nil
}

// CreateRole adds a role to the organization. The acting user must be
// the owner or hold role.manage.
func (s *Service) CreateRole(ctx context.Context, orgID, actingUserID uuid.UUID, request models.AddRole) (*models.Role, error) {
	ctx, span := tracer.Start(ctx, "CreateRole")
	defer span.End()

	if err := validateRoleName(request.Name); err != nil {
		return nil, err
	}
	if err := validateHierarchyLevel(request.HierarchyLevel); err != nil {
		return nil, err
	}

	var role models.Role
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionRoleManage); err != nil {
			return err
		}
		var count int64
		if res := tx.Model(&models.Role{}).Where("organization_id = ? AND name = ?", orgID, request.Name).Count(&count); res.Error != nil {
			return res.Error
		}
		if count > 0 {
			return &DuplicateNameError{Name: request.Name}
		}
		role = models.Role{
			OrganizationID: orgID,
			Name:           request.Name,
			HierarchyLevel: request.HierarchyLevel,
		}
		if res := tx.Create(&role); res.Error != nil {
			if database.IsDuplicateError(res.Error) {
				return &DuplicateNameError{Name: request.Name}
			}
			return res.Error
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	s.Logger(ctx).Infow("role created", "organization", orgID, "role", role.ID, "name", role.Name)
	return &role, nil
}

// UpdateRole applies a partial update to a role. A provided name is
// re-checked for uniqueness excluding the role itself.
func (s *Service) UpdateRole(ctx context.Context, orgID, roleID, actingUserID uuid.UUID, request models.PatchRole) (*models.Role, error) {
	ctx, span := tracer.Start(ctx, "UpdateRole")
	defer span.End()

	if request.Name != nil {
		if err := validateRoleName(*request.Name); err != nil {
			return nil, err
		}
	}
	if request.HierarchyLevel != nil {
		if err := validateHierarchyLevel(*request.HierarchyLevel); err != nil {
			return nil, err
		}
	}

	var role models.Role
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionRoleManage); err != nil {
			return err
		}
		if res := s.forUpdate(tx).First(&role, "id = ? AND organization_id = ?", roleID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "role"}
			}
			return res.Error
		}
		if request.Name != nil && *request.Name != role.Name {
			var count int64
			if res := tx.Model(&models.Role{}).
				Where("organization_id = ? AND name = ? AND id <> ?", orgID, *request.Name, roleID).
				Count(&count); res.Error != nil {
				return res.Error
			}
			if count > 0 {
				return &DuplicateNameError{Name: *request.Name}
			}
			role.Name = *request.Name
		}
		if request.HierarchyLevel != nil {
			role.HierarchyLevel = *request.HierarchyLevel
		}
		if res := tx.Save(&role); res.Error != nil {
			if database.IsDuplicateError(res.Error) {
				return &DuplicateNameError{Name: role.Name}
			}
			return res.Error
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &role, nil
}

// DeleteRole removes a role. Members still holding it are first
// reassigned to the replacement role, all inside one transaction. The
// only role of an organization cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, orgID, roleID, actingUserID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeleteRole")
	defer span.End()

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
		var roles []models.Role
		if res := s.forUpdate(tx).Where("organization_id = ?", orgID).Order("hierarchy_level, id").Find(&roles); res.Error != nil {
			return res.Error
		}
		if len(roles) == 1 {
			return ErrLastRole
		}

		// Members and pending invitations both reference the role and
		// must be repointed before it goes away.
		var memberCount int64
		if res := tx.Model(&models.Member{}).Where("organization_id = ? AND role_id = ?", orgID, roleID).Count(&memberCount); res.Error != nil {
			return res.Error
		}
		var invitationCount int64
		if res := tx.Model(&models.Invitation{}).Where("organization_id = ? AND role_id = ?", orgID, roleID).Count(&invitationCount); res.Error != nil {
			return res.Error
		}
		if memberCount > 0 || invitationCount > 0 {
			replacement := pickReplacementRole(roles, role)
			if replacement == nil {
				return ErrNoReplacementRole
			}
			if res := tx.Model(&models.Member{}).
				Where("organization_id = ? AND role_id = ?", orgID, roleID).
				Update("role_id", replacement.ID); res.Error != nil {
				return res.Error
			}
			if res := tx.Model(&models.Invitation{}).
				Where("organization_id = ? AND role_id = ?", orgID, roleID).
				Update("role_id", replacement.ID); res.Error != nil {
				return res.Error
			}
			s.Logger(ctx).Infow("reassigned references of deleted role",
				"organization", orgID, "role", roleID, "replacement", replacement.ID,
				"members", memberCount, "invitations", invitationCount)
		}

		if res := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}); res.Error != nil {
			return res.Error
		}
		if res := tx.Delete(&role); res.Error != nil {
			return res.Error
		}
		return nil
	})
	return wrapStorage(err)
}

// ListRoles returns all roles of the organization ordered by authority.
func (s *Service) ListRoles(ctx context.Context, orgID uuid.UUID) ([]models.Role, error) {
	var roles []models.Role
	res := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("hierarchy_level, name").
		Find(&roles)
	if res.Error != nil {
		return nil, wrapStorage(res.Error)
	}
	return roles, nil
}

// pickReplacementRole chooses where members of a deleted role move:
// a lateral move to the same hierarchy level wins, then the closest
// level of higher authority (below numerically), then the closest
// level of lower authority. Ties break on role id for determinism.
func pickReplacementRole(roles []models.Role, deleted models.Role) *models.Role {
	var same, below, above *models.Role
	for i := range roles {
		r := &roles[i]
		if r.ID == deleted.ID {
			continue
		}
		switch {
		case r.HierarchyLevel == deleted.HierarchyLevel:
			if same == nil || r.ID.String() < same.ID.String() {
				same = r
			}
		case r.HierarchyLevel < deleted.HierarchyLevel:
			if below == nil || r.HierarchyLevel > below.HierarchyLevel ||
				(r.HierarchyLevel == below.HierarchyLevel && r.ID.String() < below.ID.String()) {
				below = r
			}
		default:
			if above == nil || r.HierarchyLevel < above.HierarchyLevel ||
				(r.HierarchyLevel == above.HierarchyLevel && r.ID.String() < above.ID.String()) {
				above = r
			}
		}
	}
	if same != nil {
		return same
	}
	if below != nil {
		return below
	}
	return above
}
