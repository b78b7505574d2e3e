package orgs

import (
	"context"
	"errors"

	"github.com/orghub-io/orghub/internal/models"
)

func (suite *ServiceTestSuite) TestCreateOrganizationSeedsDefaults() {
	require := suite.Require()
	ctx := context.Background()

	roles, err := suite.service.ListRoles(ctx, suite.org.ID)
	require.NoError(err)
	require.Len(roles, 3)
	require.Equal("owner", roles[0].Name)
	require.Equal(0, roles[0].HierarchyLevel)
	require.Equal("admin", roles[1].Name)
	require.Equal(models.AdminTierLevel, roles[1].HierarchyLevel)
	require.Equal("member", roles[2].Name)
	require.Equal(5, roles[2].HierarchyLevel)

	ownerPerms, err := suite.service.ListRolePermissions(ctx, suite.org.ID, roles[0].ID)
	require.NoError(err)
	require.ElementsMatch(models.Permissions(), ownerPerms)

	memberPerms, err := suite.service.ListRolePermissions(ctx, suite.org.ID, roles[2].ID)
	require.NoError(err)
	require.Empty(memberPerms)

	access, err := suite.service.CheckUserPermissions(ctx, suite.owner.ID, suite.org.ID)
	require.NoError(err)
	require.NotNil(access)
	require.True(access.IsOwner)
	require.Equal("owner", access.RoleName)
	require.Equal(0, access.HierarchyLevel)
	require.ElementsMatch(models.Permissions(), access.Permissions)
}

func (suite *ServiceTestSuite) TestCreateOrganizationDuplicateSlug() {
	_, err := suite.service.CreateOrganization(context.Background(), suite.owner.ID, models.AddOrganization{
		Name: "Acme Rockets Again",
		Slug: "acme-rockets",
	})
	var duplicate *DuplicateNameError
	suite.Require().ErrorAs(err, &duplicate)
	suite.Require().Equal("acme-rockets", duplicate.Name)
}

func (suite *ServiceTestSuite) TestCreateOrganizationValidation() {
	require := suite.Require()
	ctx := context.Background()
	var validation *ValidationError

	_, err := suite.service.CreateOrganization(ctx, suite.owner.ID, models.AddOrganization{
		Name: "", Slug: "no-name",
	})
	require.ErrorAs(err, &validation)
	require.Equal("name", validation.Field)

	for _, slug := range []string{"", "Upper-Case", "spaces here", "-leading", "trailing-", "under_score"} {
		_, err := suite.service.CreateOrganization(ctx, suite.owner.ID, models.AddOrganization{
			Name: "Bad Slug", Slug: slug,
		})
		require.ErrorAs(err, &validation, "slug %q should be rejected", slug)
		require.Equal("slug", validation.Field)
	}
}

func (suite *ServiceTestSuite) TestCreateOrganizationUnknownOwner() {
	_, err := suite.service.CreateOrganization(context.Background(), suite.outsider.ID, models.AddOrganization{
		Name: "Orphans", Slug: "orphans",
	})
	suite.Require().NoError(err)

	missing := suite.createUser("ghost@example.com", "Ghost")
	suite.Require().NoError(suite.service.db.Delete(&missing).Error)
	_, err = suite.service.CreateOrganization(context.Background(), missing.ID, models.AddOrganization{
		Name: "Ghost Org", Slug: "ghost-org",
	})
	var notFound *NotFoundError
	suite.Require().ErrorAs(err, &notFound)
	suite.Require().Equal("user", notFound.Resource)
}

func (suite *ServiceTestSuite) TestUpdateOrganizationSettings() {
	require := suite.Require()
	ctx := context.Background()

	name := "Acme Rockets Ltd"
	website := "https://acme.example.com"
	org, err := suite.service.UpdateOrganizationSettings(ctx, suite.org.ID, suite.admin.ID, models.PatchOrganization{
		Name:    &name,
		Website: &website,
	})
	require.NoError(err)
	require.Equal(name, org.Name)
	require.Equal(website, org.Website)
	// untouched fields survive the patch
	require.Equal("acme-rockets", org.Slug)

	_, err = suite.service.UpdateOrganizationSettings(ctx, suite.org.ID, suite.member.ID, models.PatchOrganization{Name: &name})
	require.True(errors.Is(err, ErrPermissionDenied))

	empty := ""
	_, err = suite.service.UpdateOrganizationSettings(ctx, suite.org.ID, suite.owner.ID, models.PatchOrganization{Name: &empty})
	var validation *ValidationError
	require.ErrorAs(err, &validation)
}

func (suite *ServiceTestSuite) TestGetOrganizationNotFound() {
	_, err := suite.service.GetOrganization(context.Background(), suite.owner.ID)
	var notFound *NotFoundError
	suite.Require().ErrorAs(err, &notFound)
}
