package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/orghub-io/orghub/internal/models"
)

func (suite *HandlerTestSuite) TestCreateOrganization() {
	require := suite.Require()

	body, err := json.Marshal(models.AddOrganization{Name: "Acme", Slug: "acme"})
	require.NoError(err)
	res := suite.ServeRequest(http.MethodPost, "/", "/", suite.otherUser, suite.api.CreateOrganization, bytes.NewReader(body))
	require.Equal(http.StatusCreated, res.Code, res.Body.String())

	var org models.Organization
	require.NoError(json.Unmarshal(res.Body.Bytes(), &org))
	require.Equal("acme", org.Slug)
	require.Equal(suite.otherUser.ID, org.OwnerID)

	// A duplicate slug conflicts.
	res = suite.ServeRequest(http.MethodPost, "/", "/", suite.testUser, suite.api.CreateOrganization, bytes.NewReader(body))
	require.Equal(http.StatusConflict, res.Code, res.Body.String())

	// No identity, no organization.
	res = suite.ServeRequest(http.MethodPost, "/", "/", models.User{}, suite.api.CreateOrganization, bytes.NewReader(body))
	require.Equal(http.StatusUnauthorized, res.Code)
}

func (suite *HandlerTestSuite) TestGetOrganization() {
	require := suite.Require()

	res := suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.GetOrganization, nil)
	require.Equal(http.StatusOK, res.Code, res.Body.String())

	var org models.Organization
	require.NoError(json.Unmarshal(res.Body.Bytes(), &org))
	require.Equal(suite.testOrgID, org.ID)

	res = suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.otherUser.ID),
		suite.testUser, suite.api.GetOrganization, nil)
	require.Equal(http.StatusNotFound, res.Code)

	res = suite.ServeRequest(http.MethodGet, "/:organization", "/not-a-uuid",
		suite.testUser, suite.api.GetOrganization, nil)
	require.Equal(http.StatusBadRequest, res.Code)
}

func (suite *HandlerTestSuite) TestUpdateOrganization() {
	require := suite.Require()

	name := "Renamed Org"
	body, err := json.Marshal(models.PatchOrganization{Name: &name})
	require.NoError(err)

	res := suite.ServeRequest(http.MethodPatch, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.UpdateOrganization, bytes.NewReader(body))
	require.Equal(http.StatusOK, res.Code, res.Body.String())

	var org models.Organization
	require.NoError(json.Unmarshal(res.Body.Bytes(), &org))
	require.Equal(name, org.Name)

	// A non-member cannot update settings.
	res = suite.ServeRequest(http.MethodPatch, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.otherUser, suite.api.UpdateOrganization, bytes.NewReader(body))
	require.Equal(http.StatusForbidden, res.Code)
}

func (suite *HandlerTestSuite) TestGetMyAccess() {
	require := suite.Require()

	res := suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.GetMyAccess, nil)
	require.Equal(http.StatusOK, res.Code, res.Body.String())

	var access models.Access
	require.NoError(json.Unmarshal(res.Body.Bytes(), &access))
	require.True(access.IsOwner)
	require.Equal("owner", access.RoleName)

	res = suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.otherUser, suite.api.GetMyAccess, nil)
	require.Equal(http.StatusForbidden, res.Code)
}
