package orgs

import (
	"errors"
	"fmt"
)

// Business outcomes are returned as typed errors so callers can map
// them to transport responses without string matching. Anything else
// coming out of the store is wrapped in a StorageError.
var (
	// ErrPermissionDenied means the acting user lacks the permission
	// gating the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrForbidden means the acting user is not a member of the
	// organization at all.
	ErrForbidden = errors.New("not a member of the organization")

	// ErrLastRole means the operation would leave the organization
	// without any role.
	ErrLastRole = errors.New("cannot delete the only role in the organization")

	// ErrLastRoleManageHolder means the operation would leave the
	// organization without any role able to manage roles.
	ErrLastRoleManageHolder = errors.New("no other role holds role.manage")

	// ErrNoReplacementRole is returned when a deleted role's members
	// cannot be reassigned. Unreachable while ErrLastRole holds.
	ErrNoReplacementRole = errors.New("no replacement role available")

	// ErrAlreadyMember means the subject already belongs to the
	// organization.
	ErrAlreadyMember = errors.New("user is already a member of the organization")

	// ErrInvitationExpired means the invitation's expiry has passed.
	ErrInvitationExpired = errors.New("invitation has expired")

	// ErrWrongEmail means the invitation was issued to a different
	// email address than the accepting user's.
	ErrWrongEmail = errors.New("invitation was issued to a different email address")

	// ErrCannotRemoveOwner guards the single owner membership.
	ErrCannotRemoveOwner = errors.New("the organization owner cannot be removed")
)

// NotFoundError means the referenced entity is missing or belongs to a
// different organization.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ValidationError means an input failed shape or range validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateNameError means a uniqueness constraint within the
// organization was violated.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("name already in use: %s", e.Name)
}

// StorageError wraps an unexpected failure from the backing store so
// callers can distinguish infrastructure faults from business
// rejections.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage error: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

var businessSentinels = []error{
	ErrPermissionDenied,
	ErrForbidden,
	ErrLastRole,
	ErrLastRoleManageHolder,
	ErrNoReplacementRole,
	ErrAlreadyMember,
	ErrInvitationExpired,
	ErrWrongEmail,
	ErrCannotRemoveOwner,
}

func isBusinessError(err error) bool {
	for _, sentinel := range businessSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	var notFound *NotFoundError
	var validation *ValidationError
	var duplicate *DuplicateNameError
	return errors.As(err, &notFound) ||
		errors.As(err, &validation) ||
		errors.As(err, &duplicate)
}

// wrapStorage passes business errors through untouched and wraps
// everything else in a StorageError.
func wrapStorage(err error) error {
	if err == nil || isBusinessError(err) {
		return err
	}
	var storage *StorageError
	if errors.As(err, &storage) {
		return err
	}
	return &StorageError{Err: err}
}
