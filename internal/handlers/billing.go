package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/billing"
	"github.com/orghub-io/orghub/internal/models"
)

// billingEnabled gates the billing endpoints on the billing feature
// flag.
func (api *API) billingEnabled(c *gin.Context) bool {
	enabled, err := api.fflags.GetFlag("billing")
	if err != nil {
		api.SendInternalServerError(c, err)
		return false
	}
	if !enabled {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("billing"))
		return false
	}
	return true
}

// requireSettingManage admits the organization owner or any member
// whose role holds setting.manage.
func (api *API) requireSettingManage(c *gin.Context, orgId uuid.UUID) bool {
	ctx := c.Request.Context()
	userId := api.GetCurrentUserID(c)
	if userId == uuid.Nil {
		c.JSON(http.StatusUnauthorized, models.BaseError{Error: "not authenticated"})
		return false
	}
	allowed, err := api.orgs.HasOrgPermission(ctx, orgId, userId, models.PermissionSettingManage)
	if err != nil {
		api.SendInternalServerError(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, models.NewNotAllowedError("permission denied"))
		return false
	}
	return true
}

// EnsureBillingCustomer links the organization to a billing customer
// @Summary      Ensure Billing Customer
// @Description  Returns the organization's billing customer id, creating one with the provider on first use.
// @Id           EnsureBillingCustomer
// @Tags         Billing
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization}/billing/customer [post]
func (api *API) EnsureBillingCustomer(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "EnsureBillingCustomer")
	defer span.End()

	if !api.billingEnabled(c) {
		return
	}
	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	if !api.requireSettingManage(c, orgId) {
		return
	}

	customerId, err := api.billing.EnsureCustomer(ctx, orgId)
	if err != nil {
		if err == billing.ErrOrganizationNotFound {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("organization"))
			return
		}
		api.SendInternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": customerId})
}

// GetSeatUsage reports the seat quantity for the linked billing customer
// @Summary      Get Seat Usage
// @Id           GetSeatUsage
// @Tags         Billing
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  billing.SeatUsage
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/billing/seats [get]
func (api *API) GetSeatUsage(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetSeatUsage")
	defer span.End()

	if !api.billingEnabled(c) {
		return
	}
	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	if !api.requireSettingManage(c, orgId) {
		return
	}

	usage, err := api.billing.SeatUsage(ctx, orgId)
	if err != nil {
		switch err {
		case billing.ErrOrganizationNotFound:
			c.JSON(http.StatusNotFound, models.NewNotFoundError("organization"))
		case billing.ErrNotLinked:
			c.JSON(http.StatusConflict, models.NewConflictsError(orgId.String()))
		default:
			api.SendInternalServerError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, usage)
}
