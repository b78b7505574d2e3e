package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/orghub-io/orghub/internal/billing"
)

func (suite *HandlerTestSuite) TestBillingDisabledByDefault() {
	res := suite.ServeRequest(http.MethodPost, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.EnsureBillingCustomer, nil)
	suite.Require().Equal(http.StatusNotFound, res.Code)
}

func (suite *HandlerTestSuite) TestBillingCustomerAndSeats() {
	suite.T().Setenv("ORGHUB_FFLAG_BILLING", "true")
	require := suite.Require()

	// Seat usage before linking conflicts.
	res := suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.GetSeatUsage, nil)
	require.Equal(http.StatusConflict, res.Code, res.Body.String())

	res = suite.ServeRequest(http.MethodPost, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.EnsureBillingCustomer, nil)
	require.Equal(http.StatusOK, res.Code, res.Body.String())
	var linked map[string]string
	require.NoError(json.Unmarshal(res.Body.Bytes(), &linked))
	require.Equal("cus_test_"+suite.testOrgID.String(), linked["customer_id"])

	// Linking is idempotent.
	res = suite.ServeRequest(http.MethodPost, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.EnsureBillingCustomer, nil)
	require.Equal(http.StatusOK, res.Code)

	res = suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.testUser, suite.api.GetSeatUsage, nil)
	require.Equal(http.StatusOK, res.Code, res.Body.String())
	var usage billing.SeatUsage
	require.NoError(json.Unmarshal(res.Body.Bytes(), &usage))
	require.Equal("cus_test_"+suite.testOrgID.String(), usage.CustomerID)
	require.EqualValues(1, usage.Quantity)

	// Members without setting.manage cannot see billing.
	res = suite.ServeRequest(http.MethodGet, "/:organization", fmt.Sprintf("/%s", suite.testOrgID),
		suite.otherUser, suite.api.GetSeatUsage, nil)
	require.Equal(http.StatusForbidden, res.Code)
}
