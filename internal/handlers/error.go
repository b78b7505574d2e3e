package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orghub-io/orghub/internal/models"
	"github.com/orghub-io/orghub/internal/orgs"
)

// sendError maps engine errors onto the API's response taxonomy:
// validation 400, authorization 403, missing 404, conflicts and
// invariant violations 409, storage faults 500.
func (api *API) sendError(c *gin.Context, err error) {
	var validation *orgs.ValidationError
	var notFound *orgs.NotFoundError
	var duplicate *orgs.DuplicateNameError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, models.NewFieldValidationError(validation.Field, validation.Reason))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(notFound.Resource))
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, models.NewConflictsError(duplicate.Name))
	case errors.Is(err, orgs.ErrPermissionDenied),
		errors.Is(err, orgs.ErrForbidden),
		errors.Is(err, orgs.ErrWrongEmail):
		c.JSON(http.StatusForbidden, models.NewNotAllowedError(err.Error()))
	case errors.Is(err, orgs.ErrAlreadyMember),
		errors.Is(err, orgs.ErrInvitationExpired),
		errors.Is(err, orgs.ErrLastRole),
		errors.Is(err, orgs.ErrLastRoleManageHolder),
		errors.Is(err, orgs.ErrNoReplacementRole),
		errors.Is(err, orgs.ErrCannotRemoveOwner):
		c.JSON(http.StatusConflict, models.ConflictsError{
			BaseError: models.BaseError{Error: err.Error()},
		})
	default:
		api.SendInternalServerError(c, err)
	}
}
