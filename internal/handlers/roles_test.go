package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/orghub-io/orghub/internal/models"
)

func (suite *HandlerTestSuite) TestRoleLifecycle() {
	require := suite.Require()

	body, err := json.Marshal(models.AddRole{Name: "editor", HierarchyLevel: 3})
	require.NoError(err)
	res := suite.ServeRequest(http.MethodPost, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.CreateRole, bytes.NewReader(body))
	require.Equal(http.StatusCreated, res.Code, res.Body.String())

	var editor models.Role
	require.NoError(json.Unmarshal(res.Body.Bytes(), &editor))
	require.Equal("editor", editor.Name)

	// Duplicate names conflict.
	res = suite.ServeRequest(http.MethodPost, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.CreateRole, bytes.NewReader(body))
	require.Equal(http.StatusConflict, res.Code)

	// Out-of-range levels are rejected.
	body, err = json.Marshal(models.AddRole{Name: "deep", HierarchyLevel: 11})
	require.NoError(err)
	res = suite.ServeRequest(http.MethodPost, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.CreateRole, bytes.NewReader(body))
	require.Equal(http.StatusBadRequest, res.Code)

	res = suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.ListRoles, nil)
	require.Equal(http.StatusOK, res.Code)
	var roles []models.Role
	require.NoError(json.Unmarshal(res.Body.Bytes(), &roles))
	require.Len(roles, 4)

	res = suite.ServeRequest(http.MethodDelete, "/:organization/:role",
		fmt.Sprintf("/%s/%s", suite.testOrgID, editor.ID),
		suite.testUser, suite.api.DeleteRole, nil)
	require.Equal(http.StatusNoContent, res.Code, res.Body.String())
}

func (suite *HandlerTestSuite) TestDeleteLastRoleConflicts() {
	require := suite.Require()

	for _, name := range []string{"member", "admin"} {
		role := suite.roleByName(suite.testOrgID, name)
		res := suite.ServeRequest(http.MethodDelete, "/:organization/:role",
			fmt.Sprintf("/%s/%s", suite.testOrgID, role.ID),
			suite.testUser, suite.api.DeleteRole, nil)
		require.Equal(http.StatusNoContent, res.Code, res.Body.String())
	}

	ownerRole := suite.roleByName(suite.testOrgID, "owner")
	res := suite.ServeRequest(http.MethodDelete, "/:organization/:role",
		fmt.Sprintf("/%s/%s", suite.testOrgID, ownerRole.ID),
		suite.testUser, suite.api.DeleteRole, nil)
	require.Equal(http.StatusConflict, res.Code, res.Body.String())
}

func (suite *HandlerTestSuite) TestUpdateRolePermissions() {
	require := suite.Require()
	memberRole := suite.roleByName(suite.testOrgID, "member")

	body, err := json.Marshal(models.UpdateRolePermissions{
		Permissions: []models.Permission{models.PermissionMediaManage, models.PermissionMemberManage},
	})
	require.NoError(err)
	res := suite.ServeRequest(http.MethodPut, "/:organization/:role",
		fmt.Sprintf("/%s/%s", suite.testOrgID, memberRole.ID),
		suite.testUser, suite.api.UpdateRolePermissions, bytes.NewReader(body))
	require.Equal(http.StatusOK, res.Code, res.Body.String())

	var permissions []models.Permission
	require.NoError(json.Unmarshal(res.Body.Bytes(), &permissions))
	require.ElementsMatch([]models.Permission{
		models.PermissionMediaManage, models.PermissionMemberManage,
	}, permissions)

	// Stripping role.manage from its last holder is rejected. The
	// admin role also holds it, drop that one first.
	adminRole := suite.roleByName(suite.testOrgID, "admin")
	body, err = json.Marshal(models.UpdateRolePermissions{})
	require.NoError(err)
	res = suite.ServeRequest(http.MethodPut, "/:organization/:role",
		fmt.Sprintf("/%s/%s", suite.testOrgID, adminRole.ID),
		suite.testUser, suite.api.UpdateRolePermissions, bytes.NewReader(body))
	require.Equal(http.StatusOK, res.Code, res.Body.String())

	ownerRole := suite.roleByName(suite.testOrgID, "owner")
	res = suite.ServeRequest(http.MethodPut, "/:organization/:role",
		fmt.Sprintf("/%s/%s", suite.testOrgID, ownerRole.ID),
		suite.testUser, suite.api.UpdateRolePermissions, bytes.NewReader(body))
	require.Equal(http.StatusConflict, res.Code, res.Body.String())
}

func (suite *HandlerTestSuite) TestListFeatureFlags() {
	require := suite.Require()

	res := suite.ServeRequest(http.MethodGet, "/", "/", suite.testUser, suite.api.ListFeatureFlags, nil)
	require.Equal(http.StatusOK, res.Code)
	var flags map[string]bool
	require.NoError(json.Unmarshal(res.Body.Bytes(), &flags))
	require.Contains(flags, "email-invitations")
	require.Contains(flags, "billing")

	res = suite.ServeRequest(http.MethodGet, "/:name", "/email-invitations", suite.testUser, suite.api.GetFeatureFlag, nil)
	require.Equal(http.StatusOK, res.Code)

	res = suite.ServeRequest(http.MethodGet, "/:name", "/no-such-flag", suite.testUser, suite.api.GetFeatureFlag, nil)
	require.Equal(http.StatusNotFound, res.Code)
}
