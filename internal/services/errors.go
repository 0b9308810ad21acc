package services

import "errors"

// Domain errors raised at the service boundary. Handlers translate these into
// the matching HTTP status code plus message; anything else is reported as an
// internal error.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailMismatch  = errors.New("user not found or email mismatch")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrStoryNotFound      = errors.New("story not found")
	ErrNotStoryAuthor     = errors.New("story not found or you are not the author")
	ErrDeleteForbidden    = errors.New("you are not authorized to delete this story")
)
