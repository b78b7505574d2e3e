package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/models"
)

// CheckIfCanInvite reports whether an email can currently be invited
// @Summary      Check Invite Eligibility
// @Id           CheckIfCanInvite
// @Tags         Invitations
// @Produce      json
// @Param        organization  path   string  true  "Organization ID"
// @Param        email         query  string  true  "Email address"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  models.ValidationError
// @Router       /api/organizations/{organization}/invitations/eligibility [get]
func (api *API) CheckIfCanInvite(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CheckIfCanInvite")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	address := c.Query("email")
	if address == "" {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("email"))
		return
	}
	eligibility, err := api.orgs.CheckIfCanInvite(ctx, address, orgId)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligibility": string(eligibility)})
}

// CreateInvitation invites an email address to the organization
// @Summary      Create an Invitation
// @Description  A duplicate send for the same email refreshes the existing invitation instead of creating a second one. The invitation email is dispatched after the row is committed.
// @Id           CreateInvitation
// @Tags         Invitations
// @Accept       json
// @Produce      json
// @Param        organization  path  string                true  "Organization ID"
// @Param        Invitation    body  models.AddInvitation  true  "Add Invitation"
// @Success      201  {object}  models.Invitation
// @Failure      400  {object}  models.ValidationError
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/organizations/{organization}/invitations [post]
func (api *API) CreateInvitation(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "CreateInvitation")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	var request models.AddInvitation
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	actingUserId := api.GetCurrentUserID(c)
	invitation, err := api.orgs.CreateInvitation(ctx, actingUserId, orgId, request)
	if err != nil {
		api.sendError(c, err)
		return
	}

	// The invitation row is committed at this point. A mail failure is
	// logged and surfaced but never rolls the invitation back.
	if err := api.sendInvitationEmail(ctx, invitation); err != nil {
		api.Logger(ctx).Errorw("failed to send invitation email",
			"invitation", invitation.ID, "error", err)
		c.JSON(http.StatusCreated, gin.H{
			"invitation": invitation,
			"warning":    "invitation created but the email could not be sent",
		})
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

// ListInvitations lists the organization's invitations with status
// @Summary      List Invitations
// @Id           ListInvitations
// @Tags         Invitations
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Success      200  {object}  []models.InvitationWithStatus
// @Failure      403  {object}  models.NotAllowedError
// @Router       /api/organizations/{organization}/invitations [get]
func (api *API) ListInvitations(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ListInvitations")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	invitations, err := api.orgs.ListInvitations(ctx, orgId, api.GetCurrentUserID(c))
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// GetInvitationFromToken resolves the token from an invitation link
// @Summary      Resolve an Invitation Token
// @Description  Looks up the invitation behind the opaque token carried in the emailed link, so the landing page can show what is being accepted.
// @Id           GetInvitationFromToken
// @Tags         Invitations
// @Produce      json
// @Param        token  query  string  true  "Invite token"
// @Success      200  {object}  models.Invitation
// @Failure      400  {object}  models.ValidationError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/invitations/receive [get]
func (api *API) GetInvitationFromToken(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "GetInvitationFromToken")
	defer span.End()

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, models.NewFieldNotPresentError("token"))
		return
	}
	invitation, err := api.orgs.GetInvitationByToken(ctx, token)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

// AcceptInvitation consumes an invitation and joins the organization
// @Summary      Accept an Invitation
// @Description  Atomically deletes the invitation and creates the membership. Exactly one of two concurrent accepts can succeed.
// @Id           AcceptInvitation
// @Tags         Invitations
// @Produce      json
// @Param        invitation  path  string  true  "Invitation ID"
// @Success      204
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Failure      409  {object}  models.ConflictsError
// @Router       /api/invitations/{invitation}/accept [post]
func (api *API) AcceptInvitation(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "AcceptInvitation")
	defer span.End()

	invitationId, err := uuid.Parse(c.Param("invitation"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("invitation"))
		return
	}
	if err := api.orgs.AcceptInvitation(ctx, invitationId, api.GetCurrentUserEmail(c)); err != nil {
		api.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeclineInvitation lets the invited user refuse an invitation
// @Summary      Decline an Invitation
// @Id           DeclineInvitation
// @Tags         Invitations
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Param        invitation    path  string  true  "Invitation ID"
// @Success      204
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization}/invitations/{invitation}/decline [post]
func (api *API) DeclineInvitation(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "DeclineInvitation")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	invitationId, err := uuid.Parse(c.Param("invitation"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("invitation"))
		return
	}
	if err := api.orgs.DeclineInvitation(ctx, invitationId, orgId, api.GetCurrentUserEmail(c)); err != nil {
		api.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RevokeInvitation lets an invitation manager withdraw an invitation
// @Summary      Revoke an Invitation
// @Description  Deletes the invitation. If the invited email belongs to an existing account, a notification mail is sent after commit.
// @Id           RevokeInvitation
// @Tags         Invitations
// @Produce      json
// @Param        organization  path  string  true  "Organization ID"
// @Param        invitation    path  string  true  "Invitation ID"
// @Success      204
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization}/invitations/{invitation} [delete]
func (api *API) RevokeInvitation(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "RevokeInvitation")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	invitationId, err := uuid.Parse(c.Param("invitation"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("invitation"))
		return
	}
	invitation, err := api.orgs.RevokeInvitation(ctx, invitationId, orgId, api.GetCurrentUserID(c))
	if err != nil {
		api.sendError(c, err)
		return
	}

	// Best effort, post-commit: tell the invited user if they have an
	// account.
	var user models.User
	if res := api.db.WithContext(ctx).First(&user, "lower(email) = ?", invitation.Email); res.Error == nil {
		if err := api.sendRevocationEmail(ctx, invitation); err != nil {
			api.Logger(ctx).Errorw("failed to send revocation email",
				"invitation", invitation.ID, "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}

// UpdateInvitation changes the role a pending invitation grants
// @Summary      Update an Invitation
// @Id           UpdateInvitation
// @Tags         Invitations
// @Accept       json
// @Produce      json
// @Param        organization  path  string                  true  "Organization ID"
// @Param        invitation    path  string                  true  "Invitation ID"
// @Param        Invitation    body  models.PatchInvitation  true  "Invitation patch"
// @Success      200  {object}  models.Invitation
// @Failure      403  {object}  models.NotAllowedError
// @Failure      404  {object}  models.NotFoundError
// @Router       /api/organizations/{organization}/invitations/{invitation} [patch]
func (api *API) UpdateInvitation(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "UpdateInvitation")
	defer span.End()

	orgId, err := uuid.Parse(c.Param("organization"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("organization"))
		return
	}
	invitationId, err := uuid.Parse(c.Param("invitation"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPathParameterError("invitation"))
		return
	}
	var request models.PatchInvitation
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.NewBadPayloadError())
		return
	}
	invitation, err := api.orgs.UpdateInvitation(ctx, invitationId, orgId, api.GetCurrentUserID(c), request)
	if err != nil {
		api.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}
