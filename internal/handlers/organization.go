package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
)

// CreateOrganization creates a new Organization
// @Summary      Create an Organization
// @Description  Creates an organization with its default role set and the caller as owner
// @Id           CreateOrganization
// @Tags         Organizations
// @Accept       json
// @Produce      json
// @Param        Organization  body     models.AddOrganization  true  "Add Organization"
// @Success      201  {object}  models.Organization
// @Failure      400  {object}  models.ValidationError
// @Failure      401  {object}  models.BaseError
// @Failure      409  {object}  models.ConflictsError
// @Failure      500  {object}  models.InternalServerError "Internal Server Error"
// @Router       /api/organizations [post]
func (api *API) CreateOrganization(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateOrganization")
	defer span.End()

	userId := api.GetCurrentUserID(c)
	if userId == uuid.Nil {
		c.JSON(http.StatusUnauthorized, models.BaseError{Error: "not authenticated"})
		return
	}

	var request models.AddOrganization
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}

	org, err := api.orgs.CreateOrganization(ctx, userId, request)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

// GetOrganization gets a single Organization
// @Summary      Get an Organization
// @Id           GetOrganization
// @Tags         Organizations
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  models.Organization
// @Failure      400  {object}  models.ValidationError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization} [get]
func (api *API) GetOrganization(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetOrganization")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	org, err := api.orgs.GetOrganization(ctx, orgId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// UpdateOrganization updates organization settings
// @Summary      Update Organization Settings
// @Id           UpdateOrganization
// @Tags         Organizations
// @Accept       json
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Param        Organization  body  models.PatchOrganization  true  "Settings patch"
// @Success      200  {object}  models.Organization
// @Failure      400  {object}  models.ValidationError
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization} [patch]
func (api *API) UpdateOrganization(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateOrganization")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	var request models.PatchOrganization
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	org, err := api.orgs.UpdateOrganizationSettings(ctx, orgId, api.GetCurrentUserID(c), request)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}
