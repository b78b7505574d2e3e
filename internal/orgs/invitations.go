package orgs

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Eligibility is the outcome of an invite pre-check.
type Eligibility string

const (
	Eligible                 Eligibility = "eligible"
	IneligibleAlreadyMember  Eligibility = "already_member"
	IneligibleInvitationSent Eligibility = "invitation_already_sent"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	return nil
}

// newInviteToken returns an opaque 256-bit token.
func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckIfCanInvite reports whether the email address can currently be
// invited to the organization. Any existing invitation row blocks,
// expired or not; re-sending refreshes an expired row instead.
func (s *Service) CheckIfCanInvite(ctx context.Context, email string, orgID uuid.UUID) (Eligibility, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	var eligibility Eligibility
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if res := tx.Model(&models.Member{}).
			Joins("JOIN users ON users.id = members.user_id").
			Where("members.organization_id = ? AND lower(users.email) = ?", orgID, email).
			Count(&count); res.Error != nil {
			return res.Error
		}
		if count > 0 {
			eligibility = IneligibleAlreadyMember
			return nil
		}
		if res := tx.Model(&models.Invitation{}).
			Where("organization_id = ? AND email = ?", orgID, email).
			Count(&count); res.Error != nil {
			return res.Error
		}
		if count > 0 {
			eligibility = IneligibleInvitationSent
			return nil
		}
		eligibility = Eligible
		return nil
	})
	if err != nil {
		return "", wrapStorage(err)
	}
	return eligibility, nil
}

// CreateInvitation invites an email address to the organization with
// the given role. A duplicate send for the same (organization, email)
// refreshes the existing row in place: new token, role and expiry.
// Granting an admin-tier role requires the acting user to be the owner
// or hold an admin-tier role themselves.
func (s *Service) CreateInvitation(ctx context.Context, actingUserID, orgID uuid.UUID, request models.AddInvitation) (*models.Invitation, error) {
	ctx, span := tracer.Start(ctx, "CreateInvitation")
	defer span.End()

	email := normalizeEmail(request.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	var invitation models.Invitation
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionInvitationManage); err != nil {
			return err
		}
		var role models.Role
		if res := tx.First(&role, "id = ? AND organization_id = ?", request.RoleID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "role"}
			}
			return res.Error
		}
		if role.AdminTier() {
			if err := s.requireOwnerOrAdminTier(tx, orgID, actingUserID); err != nil {
				return err
			}
		}

		var count int64
		if res := tx.Model(&models.Member{}).
			Joins("JOIN users ON users.id = members.user_id").
			Where("members.organization_id = ? AND lower(users.email) = ?", orgID, email).
			Count(&count); res.Error != nil {
			return res.Error
		}
		if count > 0 {
			return ErrAlreadyMember
		}

		invitation = models.Invitation{
			OrganizationID: orgID,
			Email:          email,
			RoleID:         request.RoleID,
			InviteToken:    token,
			InvitedBy:      actingUserID,
			ExpiresAt:      time.Now().Add(s.invitationTTL),
		}
		if res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "organization_id"}, {Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"role_id", "invite_token", "invited_by", "expires_at", "updated_at",
			}),
		}).Create(&invitation); res.Error != nil {
			return res.Error
		}
		// On conflict the insert id is not the surviving row's id.
		// Read the row back into a fresh value so the stale primary
		// key cannot leak into the query conditions.
		var surviving models.Invitation
		if res := tx.First(&surviving, "organization_id = ? AND email = ?", orgID, email); res.Error != nil {
			return res.Error
		}
		invitation = surviving
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	s.Logger(ctx).Infow("invitation created", "organization", orgID, "invitation", invitation.ID)
	return &invitation, nil
}

// AcceptInvitation consumes the invitation and creates the membership,
// atomically. The invitation row is locked for the duration of the
// transaction so concurrent accepts cannot both consume it.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID uuid.UUID, userEmail string) error {
	ctx, span := tracer.Start(ctx, "AcceptInvitation")
	defer span.End()

	email := normalizeEmail(userEmail)
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var invitation models.Invitation
		if res := s.forUpdate(tx).First(&invitation, "id = ?", invitationID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invitation"}
			}
			return res.Error
		}
		if invitation.ExpiresAt.Before(time.Now()) {
			return ErrInvitationExpired
		}
		if invitation.Email != email {
			return ErrWrongEmail
		}
		var user models.User
		if res := tx.First(&user, "lower(email) = ?", email); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "user"}
			}
			return res.Error
		}
		var count int64
		if res := tx.Model(&models.Member{}).
			Where("organization_id = ? AND user_id = ?", invitation.OrganizationID, user.ID).
			Count(&count); res.Error != nil {
			return res.Error
		}
		if count > 0 {
			return ErrAlreadyMember
		}
		if res := tx.Delete(&invitation); res.Error != nil {
			return res.Error
		}
		member := models.Member{
			OrganizationID: invitation.OrganizationID,
			UserID:         user.ID,
			RoleID:         invitation.RoleID,
			IsOwner:        false,
		}
		if res := tx.Create(&member); res.Error != nil {
			return res.Error
		}
		return nil
	})
	return wrapStorage(err)
}

// DeclineInvitation lets the invited user delete the invitation. A
// missing invitation is a hard error, callers must not retry blindly.
func (s *Service) DeclineInvitation(ctx context.Context, invitationID, orgID uuid.UUID, userEmail string) error {
	ctx, span := tracer.Start(ctx, "DeclineInvitation")
	defer span.End()

	email := normalizeEmail(userEmail)
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var invitation models.Invitation
		if res := s.forUpdate(tx).First(&invitation, "id = ? AND organization_id = ?", invitationID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invitation"}
			}
			return res.Error
		}
		if invitation.Email != email {
			return ErrWrongEmail
		}
		return tx.Delete(&invitation).Error
	})
	return wrapStorage(err)
}

// RevokeInvitation lets an invitation manager delete the invitation.
// The deleted row is returned so the caller can notify the invited
// user after commit.
func (s *Service) RevokeInvitation(ctx context.Context, invitationID, orgID, actingUserID uuid.UUID) (*models.Invitation, error) {
	ctx, span := tracer.Start(ctx, "RevokeInvitation")
	defer span.End()

	var invitation models.Invitation
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionInvitationManage); err != nil {
			return err
		}
		if res := s.forUpdate(tx).First(&invitation, "id = ? AND organization_id = ?", invitationID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invitation"}
			}
			return res.Error
		}
		return tx.Delete(&invitation).Error
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &invitation, nil
}

// UpdateInvitation changes the role a pending invitation will grant.
// Moving the invitation into the admin tier requires the acting user
// to be the owner or hold an admin-tier role.
func (s *Service) UpdateInvitation(ctx context.Context, invitationID, orgID, actingUserID uuid.UUID, request models.PatchInvitation) (*models.Invitation, error) {
	ctx, span := tracer.Start(ctx, "UpdateInvitation")
	defer span.End()

	var invitation models.Invitation
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := s.requirePermission(tx, orgID, actingUserID, models.PermissionInvitationManage); err != nil {
			return err
		}
		if res := s.forUpdate(tx).First(&invitation, "id = ? AND organization_id = ?", invitationID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "invitation"}
			}
			return res.Error
		}
		var role models.Role
		if res := tx.First(&role, "id = ? AND organization_id = ?", request.RoleID, orgID); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "role"}
			}
			return res.Error
		}
		if role.AdminTier() {
			if err := s.requireOwnerOrAdminTier(tx, orgID, actingUserID); err != nil {
				return err
			}
		}
		invitation.RoleID = request.RoleID
		return tx.Save(&invitation).Error
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &invitation, nil
}

// ListInvitations returns the organization's invitations with their
// derived status. Requires invitation.manage.
func (s *Service) ListInvitations(ctx context.Context, orgID, actingUserID uuid.UUID) ([]models.InvitationWithStatus, error) {
	db := s.db.WithContext(ctx)
	if err := s.requirePermission(db, orgID, actingUserID, models.PermissionInvitationManage); err != nil {
		return nil, wrapStorage(err)
	}
	var rows []models.Invitation
	if res := db.Where("organization_id = ?", orgID).Order("created_at").Find(&rows); res.Error != nil {
		return nil, wrapStorage(res.Error)
	}
	now := time.Now()
	result := make([]models.InvitationWithStatus, 0, len(rows))
	for _, row := range rows {
		result = append(result, models.InvitationWithStatus{
			Invitation: row,
			Status:     row.Status(now),
		})
	}
	return result, nil
}

// GetInvitationByToken resolves an invitation from its opaque token,
// for the accept/decline landing flow.
func (s *Service) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var invitation models.Invitation
	if res := s.db.WithContext(ctx).First(&invitation, "invite_token = ?", token); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "invitation"}
		}
		return nil, wrapStorage(res.Error)
	}
	return &invitation, nil
}
