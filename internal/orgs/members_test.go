package orgs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
)

func (suite *ServiceTestSuite) TestCheckUserPermissions() {
	require := suite.Require()
	ctx := context.Background()

	access, err := suite.service.CheckUserPermissions(ctx, suite.admin.ID, suite.org.ID)
	require.NoError(err)
	require.NotNil(access)
	require.False(access.IsOwner)
	require.Equal("admin", access.RoleName)
	require.Equal(models.AdminTierLevel, access.HierarchyLevel)
	require.ElementsMatch([]models.Permission{
		models.PermissionRoleManage,
		models.PermissionMemberManage,
		models.PermissionInvitationManage,
		models.PermissionSettingManage,
	}, access.Permissions)

	// Not a member: nil access, no error.
	access, err = suite.service.CheckUserPermissions(ctx, suite.outsider.ID, suite.org.ID)
	require.NoError(err)
	require.Nil(access)
}

func (suite *ServiceTestSuite) TestGetMembers() {
	require := suite.Require()
	ctx := context.Background()

	members, err := suite.service.GetMembers(ctx, suite.member.ID, suite.org.ID)
	require.NoError(err)
	require.Len(members, 3)
	for _, member := range members {
		require.NotNil(member.User)
		require.NotNil(member.Role)
	}

	_, err = suite.service.GetMembers(ctx, suite.outsider.ID, suite.org.ID)
	require.True(errors.Is(err, ErrForbidden))
}

func (suite *ServiceTestSuite) TestUpdateMemberRole() {
	require := suite.Require()
	ctx := context.Background()
	adminRole := suite.roleByName("admin")
	target := suite.memberOf(suite.member.ID)

	// The admin holds member.manage.
	require.NoError(suite.service.UpdateMemberRole(ctx, suite.admin.ID, suite.org.ID, target.ID, adminRole.ID))
	require.Equal(adminRole.ID, suite.memberOf(suite.member.ID).RoleID)

	// Demote them back, then verify a plain member cannot change roles.
	memberRole := suite.roleByName("member")
	require.NoError(suite.service.UpdateMemberRole(ctx, suite.admin.ID, suite.org.ID, target.ID, memberRole.ID))
	err := suite.service.UpdateMemberRole(ctx, suite.member.ID, suite.org.ID, target.ID, adminRole.ID)
	require.True(errors.Is(err, ErrPermissionDenied))

	// The role must belong to the organization.
	err = suite.service.UpdateMemberRole(ctx, suite.owner.ID, suite.org.ID, target.ID, uuid.New())
	var notFound *NotFoundError
	require.ErrorAs(err, &notFound)

	// So must the member.
	err = suite.service.UpdateMemberRole(ctx, suite.owner.ID, suite.org.ID, uuid.New(), memberRole.ID)
	require.ErrorAs(err, &notFound)
}

func (suite *ServiceTestSuite) TestRemoveMember() {
	require := suite.Require()
	ctx := context.Background()

	target := suite.memberOf(suite.member.ID)
	err := suite.service.RemoveMember(ctx, suite.member.ID, suite.org.ID, target.ID)
	require.True(errors.Is(err, ErrPermissionDenied))

	require.NoError(suite.service.RemoveMember(ctx, suite.admin.ID, suite.org.ID, target.ID))

	access, err := suite.service.CheckUserPermissions(ctx, suite.member.ID, suite.org.ID)
	require.NoError(err)
	require.Nil(access)

	// The owner membership is not removable, even by the owner.
	ownerMember := suite.memberOf(suite.owner.ID)
	err = suite.service.RemoveMember(ctx, suite.owner.ID, suite.org.ID, ownerMember.ID)
	require.True(errors.Is(err, ErrCannotRemoveOwner))
}

func (suite *ServiceTestSuite) TestHasHigherRoleThan() {
	require := suite.Require()
	ctx := context.Background()

	higher, err := suite.service.HasHigherRoleThan(ctx, suite.owner.ID, suite.member.ID, suite.org.ID)
	require.NoError(err)
	require.True(higher)

	higher, err = suite.service.HasHigherRoleThan(ctx, suite.admin.ID, suite.owner.ID, suite.org.ID)
	require.NoError(err)
	require.False(higher)

	higher, err = suite.service.HasHigherRoleThan(ctx, suite.admin.ID, suite.member.ID, suite.org.ID)
	require.NoError(err)
	require.True(higher)

	higher, err = suite.service.HasHigherRoleThan(ctx, suite.member.ID, suite.outsider.ID, suite.org.ID)
	require.NoError(err)
	require.False(higher)
}
