package orgs

import (
	"context"
	"errors"

	"github.com/orghub-io/orghub/internal/models"
)

func (suite *ServiceTestSuite) TestUpdateRolePermissionsRoundTrip() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	want := []models.Permission{
		models.PermissionMemberManage,
		models.PermissionMediaManage,
	}
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.owner.ID, want))

	got, err := suite.service.ListRolePermissions(ctx, suite.org.ID, memberRole.ID)
	require.NoError(err)
	require.ElementsMatch(want, got)

	// Shrinking the set deletes only the difference.
	want = []models.Permission{models.PermissionMediaManage}
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.owner.ID, want))
	got, err = suite.service.ListRolePermissions(ctx, suite.org.ID, memberRole.ID)
	require.NoError(err)
	require.ElementsMatch(want, got)

	// Clearing entirely is allowed for roles without role.manage.
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.owner.ID, nil))
	got, err = suite.service.ListRolePermissions(ctx, suite.org.ID, memberRole.ID)
	require.NoError(err)
	require.Empty(got)
}

func (suite *ServiceTestSuite) TestUpdateRolePermissionsUnknownKind() {
	err := suite.service.UpdateRolePermissions(context.Background(), suite.org.ID, suite.roleByName("member").ID,
		suite.owner.ID, []models.Permission{"device.manage"})
	var validation *ValidationError
	suite.Require().ErrorAs(err, &validation)
	suite.Require().Equal("permissions", validation.Field)
}

func (suite *ServiceTestSuite) TestLastRoleManageHolderGuard() {
	require := suite.Require()
	ctx := context.Background()
	adminRole := suite.roleByName("admin")
	ownerRole := suite.roleByName("owner")

	// Both owner and admin hold role.manage, so dropping it from admin
	// is fine.
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, adminRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionMemberManage}))

	// The owner role is now the last holder, stripping it would strand
	// the organization.
	err := suite.service.UpdateRolePermissions(ctx, suite.org.ID, ownerRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionMemberManage})
	require.True(errors.Is(err, ErrLastRoleManageHolder))

	// The rejected update must not have partially applied.
	got, err := suite.service.ListRolePermissions(ctx, suite.org.ID, ownerRole.ID)
	require.NoError(err)
	require.ElementsMatch(models.Permissions(), got)

	// Re-granting role.manage elsewhere unblocks the removal.
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, adminRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionRoleManage}))
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, ownerRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionMemberManage}))
}

func (suite *ServiceTestSuite) TestRoleManageGateIsPermissionBased() {
	require := suite.Require()
	ctx := context.Background()
	memberRole := suite.roleByName("member")

	// A plain member cannot touch permission sets...
	err := suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.member.ID,
		[]models.Permission{models.PermissionMediaManage})
	require.True(errors.Is(err, ErrPermissionDenied))

	// ...until their role is granted role.manage, regardless of its
	// hierarchy level.
	require.NoError(suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.owner.ID,
		[]models.Permission{models.PermissionRoleManage}))
	err = suite.service.UpdateRolePermissions(ctx, suite.org.ID, memberRole.ID, suite.member.ID,
		[]models.Permission{models.PermissionRoleManage, models.PermissionMediaManage})
	require.NoError(err)
}
