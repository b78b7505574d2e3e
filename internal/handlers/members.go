package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
)

// GetMyAccess resolves the caller's effective role and permissions
// @Summary      Get Current User Access
// @Id           GetMyAccess
// @Tags         Members
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  models.Access
// @Failure      403  {object}  models.NotAllowedError
// @Router       /api/organizations/{organization}/access [get]
func (api *API) GetMyAccess(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetMyAccess")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	access, err := api.orgs.CheckUserPermissions(ctx, api.GetCurrentUserID(c), orgId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	if access == nil {
		c.JSON(http.StatusForbidden, models.NewNotAllowedError("no access to the organization"))
		return
	}
	c.JSON(http.StatusOK, access)
}

// ListMembers lists an organization's members
// @Summary      List Members
// @Id           ListMembers
// @Tags         Members
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  []models.Member
// @Failure      403  {object}  models.NotAllowedError
// @Router       /api/organizations/{organization}/members [get]
func (api *API) ListMembers(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListMembers")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	members, err := api.orgs.GetMembers(ctx, api.GetCurrentUserID(c), orgId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// UpdateMember changes a member's role
// @Summary      Update a Member
// @Id           UpdateMember
// @Tags         Members
// @Accept       json
// @Produce      json
// @Param        organization  path  string              true  "Organization ID"
// @Param        member        path  string              true  "Member ID"
// @Param        Member        body  models.PatchMember  true  "Member patch"
// @Success      204
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization}/members/{member} [patch]
func (api *API) UpdateMember(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateMember")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	memberId, err := uuid.Parse(c.Param("member"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("member"))
		return
	}
	var request models.PatchMember
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	if err := api.orgs.UpdateMemberRole(ctx, api.GetCurrentUserID(c), orgId, memberId, request.RoleID); err != nil {
		api.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember removes a member from the organization
// @Summary      Remove a Member
// @Id           RemoveMember
// @Tags         Members
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Param        member        path  string  true  "Member ID"
// @Success      204
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/members/{member} [delete]
func (api *API) RemoveMember(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "RemoveMember")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	memberId, err := uuid.Parse(c.Param("member"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("member"))
		return
	}
	if err := api.orgs.RemoveMember(ctx, api.GetCurrentUserID(c), orgId, memberId); err != nil {
		api.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
