package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
)

// CreateRole adds a role to an organization
// @Summary      Create a Role
// @Id           CreateRole
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        organization  path  string          true  "Organization ID"
// @Param        Role          body  models.AddRole  true  "Add Role"
// @Success      201  {object}  models.Role
// @Failure      400  {object}  models.ValidationError
// @Failure      403  {object}  models.NotAllowedError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/roles [post]
func (api *API) CreateRole(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateRole")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	var request models.AddRole
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	role, err := api.orgs.CreateRole(ctx, orgId, api.GetCurrentUserID(c), request)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

// ListRoles lists an organization's roles
// @Summary      List Roles
// @Id           ListRoles
// @Tags         Roles
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  []models.Role
// @Router       /api/organizations/{organization}/roles [get]
func (api *API) ListRoles(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListRoles")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	roles, err := api.orgs.ListRoles(ctx, orgId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// UpdateRole partially updates a role
// @Summary      Update a Role
// @Id           UpdateRole
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        organization  path  string            true  "Organization ID"
// @Param        role          path  string            true  "Role ID"
// @Param        Role          body  models.PatchRole  true  "Role patch"
// @Success      200  {object}  models.Role
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/roles/{role} [patch]
func (api *API) UpdateRole(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateRole")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	roleId, err := uuid.Parse(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("role"))
		return
	}
	var request models.PatchRole
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	role, err := api.orgs.UpdateRole(ctx, orgId, roleId, api.GetCurrentUserID(c), request)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// DeleteRole deletes a role, reassigning its members
// @Summary      Delete a Role
// @Description  Members holding the role are reassigned to the closest role in the hierarchy before deletion. The last role of an organization cannot be deleted.
// @Id           DeleteRole
// @Tags         Roles
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Param        role          path  string  true  "Role ID"
// @Success      204
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/roles/{role} [delete]
func (api *API) DeleteRole(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeleteRole")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	roleId, err := uuid.Parse(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("role"))
		return
	}
	if err := api.orgs.DeleteRole(ctx, orgId, roleId, api.GetCurrentUserID(c)); err != nil {
		api.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateRolePermissions replaces a role's permission set
// @Summary      Update Role Permissions
// @Description  Replaces the permission set. Removing role.manage from the last role holding it is rejected.
// @Id           UpdateRolePermissions
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Param        organization  path  string                        true  "Organization ID"
// @Param        role          path  string                        true  "Role ID"
// @Param        Permissions   body  models.UpdateRolePermissions  true  "Permission set"
// @Success      200  {object}  []models.Permission
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/roles/{role}/permissions [put]
func (api *API) UpdateRolePermissions(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateRolePermissions")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	roleId, err := uuid.Parse(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("role"))
		return
	}
	var request models.UpdateRolePermissions
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	if err := api.orgs.UpdateRolePermissions(ctx, orgId, roleId, api.GetCurrentUserID(c), request.Permissions); err != nil {
		api.sendError(c, err)
		return
	}
	permissions, err := api.orgs.ListRolePermissions(ctx, orgId, roleId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, permissions)
}

// ListRolePermissions lists a role's permission set
// @Summary      List Role Permissions
// @Id           ListRolePermissions
// @Tags         Roles
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Param        role          path  string  true  "Role ID"
// @Success      200  {object}  []models.Permission
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization}/roles/{role}/permissions [get]
func (api *API) ListRolePermissions(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListRolePermissions")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	roleId, err := uuid.Parse(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("role"))
		return
	}
	permissions, err := api.orgs.ListRolePermissions(ctx, orgId, roleId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, permissions)
}
