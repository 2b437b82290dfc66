// Package errors provides structured error handling for the ledger core.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeValidation indicates a malformed or incomplete event payload,
	// rejected before the event reaches the log.
	CodeValidation Code = "VALIDATION"

	// Entity reference errors
	CodeUserNotFound     Code = "USER_NOT_FOUND"
	CodeProposalNotFound Code = "PROPOSAL_NOT_FOUND"
	CodeCommentNotFound  Code = "COMMENT_NOT_FOUND"
	CodeNotFound         Code = "NOT_FOUND"

	// Economy errors
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// CodeDuplicateAction marks an action already recorded for the same
	// actor and entity. Folds treat it as a no-op to keep replay idempotent.
	CodeDuplicateAction Code = "DUPLICATE_ACTION"

	// CodeNotAuthorized indicates the acting user may not perform the
	// operation on the referenced entity.
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// CodeUnknownEventType is fatal: the log holds an event this build does
	// not understand, so processing must halt rather than skip.
	CodeUnknownEventType Code = "UNKNOWN_EVENT_TYPE"
)

// GRPCCode maps domain codes to gRPC status codes for the API layer.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation:
		return codes.InvalidArgument

	case CodeUserNotFound,
		CodeProposalNotFound,
		CodeCommentNotFound,
		CodeNotFound:
		return codes.NotFound

	case CodeInsufficientBalance:
		return codes.FailedPrecondition

	case CodeDuplicateAction:
		return codes.AlreadyExists

	case CodeNotAuthorized:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}
