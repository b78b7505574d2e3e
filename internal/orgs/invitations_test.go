package orgs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
)

func (suite *ServiceTestSuite) TestCheckIfCanInvite() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	eligibility, err := suite.service.CheckIfCanInvite(ctx, "jane@example.com", suite.org.ID)
	require.NoError(err)
	require.Equal(Eligible, eligibility)

	// Casing and padding do not hide an existing membership.
	eligibility, err = suite.service.CheckIfCanInvite(ctx, "  Member@Example.COM ", suite.org.ID)
	require.NoError(err)
	require.Equal(IneligibleAlreadyMember, eligibility)

	_, err = suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	eligibility, err = suite.service.CheckIfCanInvite(ctx, "jane@example.com", suite.org.ID)
	require.NoError(err)
	require.Equal(IneligibleInvitationSent, eligibility)

	// The check is read-only: asking twice gives the same answer.
	eligibility, err = suite.service.CheckIfCanInvite(ctx, "jane@example.com", suite.org.ID)
	require.NoError(err)
	require.Equal(IneligibleInvitationSent, eligibility)

	_, err = suite.service.CheckIfCanInvite(ctx, "not-an-email", suite.org.ID)
	var validation *ValidationError
	require.ErrorAs(err, &validation)
}

func (suite *ServiceTestSuite) TestCreateInvitationRefreshesExisting() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")
	adminRole := suite.roleByName("admin")

	first, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)
	require.Equal("jane@example.com", first.Email)
	require.NotEmpty(first.InviteToken)

	// A duplicate send refreshes the same row: same id, new role and
	// token.
	second, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "Jane@Example.com", RoleID: adminRole.ID,
	})
	require.NoError(err)
	require.Equal(first.ID, second.ID)
	require.Equal(adminRole.ID, second.RoleID)
	require.NotEqual(first.InviteToken, second.InviteToken)

	var count int64
	require.NoError(suite.service.db.Model(&models.Invitation{}).
		Where("organization_id = ?", suite.org.ID).Count(&count).Error)
	require.EqualValues(1, count)
}

func (suite *ServiceTestSuite) TestCreateInvitationGates() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")
	adminRole := suite.roleByName("admin")

	// Inviting an existing member is rejected outright.
	_, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "member@example.com", RoleID: memberRole.ID,
	})
	require.True(errors.Is(err, ErrAlreadyMember))

	// Plain members lack invitation.manage.
	_, err = suite.service.CreateInvitation(ctx, suite.member.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.True(errors.Is(err, ErrPermissionDenied))

	// The role must belong to the organization.
	_, err = suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: uuid.New(),
	})
	var notFound *NotFoundError
	require.ErrorAs(err, &notFound)

	// Granting an admin-tier role takes more than invitation.manage:
	// give the member role the permission and try to invite an admin.
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionInvitationManage}))
	_, err = suite.service.CreateInvitation(ctx, suite.member.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: adminRole.ID,
	})
	require.True(errors.Is(err, ErrPermissionDenied))

	// The admin user is in the admin tier and may grant it.
	_, err = suite.service.CreateInvitation(ctx, suite.admin.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: adminRole.ID,
	})
	require.NoError(err)
}

func (suite *ServiceTestSuite) TestAcceptInvitation() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	jane := suite.createUser("jane@example.com", "Jane Doe")
	invitation, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	// Wrong email cannot consume it.
	err = suite.service.AcceptInvitation(ctx, invitation.ID, "outsider@example.com")
	require.True(errors.Is(err, ErrWrongEmail))

	require.NoError(suite.service.AcceptInvitation(ctx, invitation.ID, "Jane@Example.com"))

	member := suite.memberOf(jane.ID)
	require.Equal(memberRole.ID, member.RoleID)
	require.False(member.IsOwner)

	// The invitation was consumed, a second accept finds nothing.
	err = suite.service.AcceptInvitation(ctx, invitation.ID, "jane@example.com")
	var notFound *NotFoundError
	require.ErrorAs(err, &notFound)
}

func (suite *ServiceTestSuite) TestAcceptExpiredInvitation() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	expiring, err := NewService(suite.logger, suite.service.db, WithInvitationTTL(-time.Hour))
	require.NoError(err)

	suite.createUser("jane@example.com", "Jane Doe")
	invitation, err := expiring.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)
	require.Equal(models.InvitationStatusExpired, invitation.Status(time.Now()))

	err = suite.service.AcceptInvitation(ctx, invitation.ID, "jane@example.com")
	require.True(errors.Is(err, ErrInvitationExpired))

	// The expired row still blocks a fresh invitation's eligibility,
	// and a re-send refreshes it back to pending.
	eligibility, err := suite.service.CheckIfCanInvite(ctx, "jane@example.com", suite.org.ID)
	require.NoError(err)
	require.Equal(IneligibleInvitationSent, eligibility)

	refreshed, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)
	require.Equal(invitation.ID, refreshed.ID)
	require.Equal(models.InvitationStatusPending, refreshed.Status(time.Now()))
	require.NoError(suite.service.AcceptInvitation(ctx, refreshed.ID, "jane@example.com"))
}

func (suite *ServiceTestSuite) TestAcceptWhenAlreadyMember() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	jane := suite.createUser("jane@example.com", "Jane Doe")
	invitation, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	// Jane joins through some other path before accepting.
	suite.addMember(jane.ID, "member")

	err = suite.service.AcceptInvitation(ctx, invitation.ID, "jane@example.com")
	require.True(errors.Is(err, ErrAlreadyMember))
}

func (suite *ServiceTestSuite) TestDeclineInvitation() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	invitation, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	err = suite.service.DeclineInvitation(ctx, invitation.ID, suite.org.ID, "someone-else@example.com")
	require.True(errors.Is(err, ErrWrongEmail))

	require.NoError(suite.service.DeclineInvitation(ctx, invitation.ID, suite.org.ID, "jane@example.com"))

	eligibility, err := suite.service.CheckIfCanInvite(ctx, "jane@example.com", suite.org.ID)
	require.NoError(err)
	require.Equal(Eligible, eligibility)
}

func (suite *ServiceTestSuite) TestRevokeInvitation() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	invitation, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	_, err = suite.service.RevokeInvitation(ctx, invitation.ID, suite.org.ID, suite.member.ID)
	require.True(errors.Is(err, ErrPermissionDenied))

	revoked, err := suite.service.RevokeInvitation(ctx, invitation.ID, suite.org.ID, suite.admin.ID)
	require.NoError(err)
	require.Equal("jane@example.com", revoked.Email)

	var count int64
	require.NoError(suite.service.db.Model(&models.Invitation{}).
		Where("organization_id = ?", suite.org.ID).Count(&count).Error)
	require.Zero(count)
}

func (suite *ServiceTestSuite) TestUpdateInvitationRole() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")
	adminRole := suite.roleByName("admin")

	invitation, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	updated, err := suite.service.UpdateInvitation(ctx, invitation.ID, suite.org.ID, suite.admin.ID, models.PatchInvitation{
		RoleID: adminRole.ID,
	})
	require.NoError(err)
	require.Equal(adminRole.ID, updated.RoleID)

	// Moving into the admin tier needs owner or admin-tier standing.
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionInvitationManage}))
	_, err = suite.service.UpdateInvitation(ctx, invitation.ID, suite.org.ID, suite.member.ID, models.PatchInvitation{
		RoleID: adminRole.ID,
	})
	require.True(errors.Is(err, ErrPermissionDenied))
}

func (suite *ServiceTestSuite) TestListInvitationsWithStatus() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	_, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "fresh@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	expiring, err := NewService(suite.logger, suite.service.db, WithInvitationTTL(-time.Hour))
	require.NoError(err)
	_, err = expiring.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "stale@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	_, err = suite.service.ListInvitations(ctx, suite.org.ID, suite.member.ID)
	require.True(errors.Is(err, ErrPermissionDenied))

	invitations, err := suite.service.ListInvitations(ctx, suite.org.ID, suite.admin.ID)
	require.NoError(err)
	require.Len(invitations, 2)
	statuses := map[string]models.InvitationStatus{}
	for _, invitation := range invitations {
		statuses[invitation.Email] = invitation.Status
	}
	require.Equal(models.InvitationStatusPending, statuses["fresh@example.com"])
	require.Equal(models.InvitationStatusExpired, statuses["stale@example.com"])
}

func (suite *ServiceTestSuite) TestGetInvitationByToken() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	invitation, err := suite.service.CreateInvitation(ctx, suite.owner.ID, suite.org.ID, models.AddInvitation{
		Email: "jane@example.com", RoleID: memberRole.ID,
	})
	require.NoError(err)

	found, err := suite.service.GetInvitationByToken(ctx, invitation.InviteToken)
	require.NoError(err)
	require.Equal(invitation.ID, found.ID)

	_, err = suite.service.GetInvitationByToken(ctx, "no-such-token")
	var notFound *NotFoundError
	require.ErrorAs(err, &notFound)
}
