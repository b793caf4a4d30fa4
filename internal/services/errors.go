package services

import "github.com/gofiber/fiber/v2"

// DomainError is a typed failure surfaced at the operation boundary
// with an HTTP status and a user-facing message.
type DomainError struct {
	Status  int
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func notFound(message string) *DomainError {
	return &DomainError{Status: fiber.StatusNotFound, Message: message}
}

func forbidden(message string) *DomainError {
	return &DomainError{Status: fiber.StatusForbidden, Message: message}
}

func conflict(message string) *DomainError {
	return &DomainError{Status: fiber.StatusConflict, Message: message}
}

var (
	ErrGroupNotFound = notFound("group not found")
	ErrItemNotFound  = notFound("item not found")
	ErrNoteNotFound  = notFound("note not found")

	// ErrApplicationNotFound doubles as the stale-reply signal: the
	// first committed reply removes the application row, so a racing
	// second reply lands here.
	ErrApplicationNotFound = notFound("already replied, please refresh")

	ErrNotInGroup     = notFound("user is not in the group")
	ErrAlreadyInGroup = conflict("you are already in the group")

	ErrInsufficientLevel = forbidden("insufficient permissions")
	ErrLeaderImmutable   = forbidden("the leader cannot be removed or demoted")
	ErrLeaderMustDisband = forbidden("the leader cannot leave, disband the group instead")
	ErrOnlyLeader        = forbidden("only the group leader may do this")
	ErrInvalidTarget     = forbidden("only ordinary members can be restricted")
	ErrAccessDenied      = forbidden("you have no access to the item")
	ErrReadOnly          = forbidden("you have read-only access to the item")
)
