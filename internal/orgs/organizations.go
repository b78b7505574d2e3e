package orgs

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/database"
	"github.com/orghub-io/orghub/internal/models"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxSlugLength = 100

func validateSlug(slug string) error {
	if len(slug) == 0 || len(slug) > maxSlugLength {
		return &ValidationError{Field: "slug", Reason: "must be 1-100 characters"}
	}
	if !slugPattern.MatchString(slug) {
		return &ValidationError{Field: "slug", Reason: "must be lowercase letters, digits and dashes"}
	}
	return nil
}

// defaultRoles is the role set seeded into every new organization. The
// level-0 role is bound to the owner membership.
func defaultRoles(orgID uuid.UUID) []struct {
	role        models.Role
	permissions []models.Permission
} {
	return []struct {
		role        models.Role
		permissions []models.Permission
	}{
		{
			role:        models.Role{OrganizationID: orgID, Name: "owner", HierarchyLevel: 0},
			permissions: models.Permissions(),
		},
		{
			role: models.Role{OrganizationID: orgID, Name: "admin", HierarchyLevel: models.AdminTierLevel},
			permissions: []models.Permission{
				models.PermissionRoleManage,
				models.PermissionMemberManage,
				models.PermissionInvitationManage,
				models.PermissionSettingManage,
			},
		},
		{
			role: models.Role{OrganizationID: orgID, Name: "member", HierarchyLevel: 5},
		},
	}
}

// CreateOrganization creates the organization, its default role set
// and the implicit owner membership in one transaction.
func (s *Service) CreateOrganization(ctx context.Context, ownerUserID uuid.UUID, request models.AddOrganization) (*models.Organization, error) {
	ctx, span := tracer.Start(ctx, "CreateOrganization")
	defer span.End()

	if request.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if err := validateSlug(request.Slug); err != nil {
		return nil, err
	}

	var org models.Organization
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var owner models.User
		if res := tx.First(&owner, "id = ?", ownerUserID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user"}
			}
			return res.Error
		}

		org = models.Organization{
			OwnerID: ownerUserID,
			Name:    request.Name,
			Slug:    request.Slug,
			LogoURL: request.LogoURL,
			Address: request.Address,
			Email:   request.Email,
			Website: request.Website,
		}
		if res := tx.Create(&org); res.Error != nil {
			if database.IsDuplicateError(res.Error) {
				return &DuplicateNameError{Name: request.Slug}
			}
			return res.Error
		}

		var ownerRole *models.Role
		for _, seed := range defaultRoles(org.ID) {
			role := seed.role
			if res := tx.Create(&role); res.Error != nil {
				return res.Error
			}
			if len(seed.permissions) > 0 {
				rows := make([]models.RolePermission, 0, len(seed.permissions))
				for _, perm := range seed.permissions {
					rows = append(rows, models.RolePermission{
						RoleID:         role.ID,
						OrganizationID: org.ID,
						Permission:     perm,
					})
				}
				if res := tx.Create(&rows); res.Error != nil {
					return res.Error
				}
			}
			if role.HierarchyLevel == models.MinHierarchyLevel && ownerRole == nil {
				r := role
				ownerRole = &r
			}
		}
		if ownerRole == nil {
			return ErrNoReplacementRole
		}

		member := models.Member{
			OrganizationID: org.ID,
			UserID:         ownerUserID,
			RoleID:         ownerRole.ID,
			IsOwner:        true,
		}
		if res := tx.Create(&member); res.Error != nil {
			return res.Error
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	s.Logger(ctx).Infow("organization created", "organization", org.ID, "slug", org.Slug)
	return &org, nil
}

// GetOrganization loads a single organization.
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if res := s.db.WithContext(ctx).First(&org, "id = ?", orgID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "organization"}
		}
		return nil, wrapStorage(res.Error)
	}
	return &org, nil
}

// UpdateOrganizationSettings applies a partial settings update. The
// acting user must be the owner or hold setting.manage or
// organization.manage.
func (s *Service) UpdateOrganizationSettings(ctx context.Context, orgID, actingUserID uuid.UUID, request models.PatchOrganization) (*models.Organization, error) {
	ctx, span := tracer.Start(ctx, "UpdateOrganizationSettings")
	defer span.End()

	if request.Name != nil && *request.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	var org models.Organization
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		settings, err := s.hasOrgPermission(tx, orgID, actingUserID, models.PermissionSettingManage)
		if err != nil {
			return err
		}
		if !settings {
			organization, err := s.hasOrgPermission(tx, orgID, actingUserID, models.PermissionOrganizationManage)
			if err != nil {
				return err
			}
			if !organization {
				return ErrPermissionDenied
			}
		}
		if res := s.forUpdate(tx).First(&org, "id = ?", orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "organization"}
			}
			return res.Error
		}
		if request.Name != nil {
			org.Name = *request.Name
		}
		if request.LogoURL != nil {
			org.LogoURL = *request.LogoURL
		}
		if request.Address != nil {
			org.Address = *request.Address
		}
		if request.Email != nil {
			org.Email = *request.Email
		}
		if request.Website != nil {
			org.Website = *request.Website
		}
		return tx.Save(&org).Error
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &org, nil
}
