// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Expression errors
	CodeExpressionEmpty           Code = "EXPRESSION_EMPTY"
	CodeExpressionSyntax          Code = "EXPRESSION_SYNTAX"
	CodeExpressionUnknownName     Code = "EXPRESSION_UNKNOWN_NAME"
	CodeExpressionInvalidArgument Code = "EXPRESSION_INVALID_ARGUMENT"
	CodeExpressionDivisionByZero  Code = "EXPRESSION_DIVISION_BY_ZERO"

	// Dice errors
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
	CodeDiceTooMany     Code = "DICE_TOO_MANY"

	// Roll log errors
	CodeRollNotFound     Code = "ROLL_NOT_FOUND"
	CodePageTokenInvalid Code = "PAGE_TOKEN_INVALID"

	// Random/seed errors
	CodeSeedOutOfRange Code = "SEED_OUT_OF_RANGE"

	// Notation errors
	CodeRulesInvalid Code = "RULES_INVALID"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - the caller's input cannot be evaluated
	case CodeExpressionEmpty,
		CodeExpressionSyntax,
		CodeExpressionUnknownName,
		CodeExpressionInvalidArgument,
		CodeExpressionDivisionByZero,
		CodeDiceInvalidSpec,
		CodeSeedOutOfRange,
		CodePageTokenInvalid:
		return codes.InvalidArgument

	// ResourceExhausted - the request asks for more work than allowed
	case CodeDiceTooMany:
		return codes.ResourceExhausted

	// NotFound - resource doesn't exist
	case CodeRollNotFound:
		return codes.NotFound

	// FailedPrecondition - the server is configured with a bad table
	case CodeRulesInvalid:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
