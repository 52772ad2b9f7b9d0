package roller

import (
	"errors"
	"strconv"

	"github.com/louisbranch/dicenotation/internal/dice"
	"github.com/louisbranch/dicenotation/internal/expression"
	"github.com/louisbranch/dicenotation/internal/notation"
	apperrors "github.com/louisbranch/dicenotation/internal/platform/errors"
	"github.com/louisbranch/dicenotation/internal/random"
)

// ErrEmptyExpression indicates a blank expression.
var ErrEmptyExpression = apperrors.New(apperrors.CodeExpressionEmpty, "expression is required")

// Classify maps an evaluation failure of raw to a coded domain error. Errors
// that are already domain errors pass through; anything unrecognized is
// wrapped as unknown.
func Classify(raw string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	var (
		syntaxErr *expression.SyntaxError
		nameErr   *expression.UnknownNameError
		argErr    *expression.ArgumentError
		ruleErr   *notation.RuleAuthoringError
	)
	switch {
	case errors.Is(err, dice.ErrTooManyDice):
		return apperrors.WrapWithMetadata(apperrors.CodeDiceTooMany, err.Error(),
			map[string]string{"Limit": strconv.Itoa(dice.MaxDice)}, err)
	case errors.Is(err, dice.ErrInvalidDiceSpec):
		return apperrors.WrapWithMetadata(apperrors.CodeDiceInvalidSpec, err.Error(),
			map[string]string{"Expression": raw}, err)
	case errors.Is(err, expression.ErrDivisionByZero):
		return apperrors.Wrap(apperrors.CodeExpressionDivisionByZero, err.Error(), err)
	case errors.Is(err, random.ErrSeedOutOfRange):
		return apperrors.Wrap(apperrors.CodeSeedOutOfRange, err.Error(), err)
	case errors.As(err, &syntaxErr):
		return apperrors.WrapWithMetadata(apperrors.CodeExpressionSyntax, err.Error(),
			map[string]string{"Expression": raw, "Reason": syntaxErr.Msg}, err)
	case errors.As(err, &nameErr):
		return apperrors.WrapWithMetadata(apperrors.CodeExpressionUnknownName, err.Error(),
			map[string]string{"Kind": string(nameErr.Kind), "Name": nameErr.Name}, err)
	case errors.As(err, &argErr):
		return apperrors.WrapWithMetadata(apperrors.CodeExpressionInvalidArgument, err.Error(),
			map[string]string{"Function": argErr.Function, "Reason": argErr.Msg}, err)
	case errors.As(err, &ruleErr):
		return apperrors.WrapWithMetadata(apperrors.CodeRulesInvalid, err.Error(),
			map[string]string{"Reason": ruleErr.Reason}, err)
	default:
		return apperrors.Wrap(apperrors.CodeUnknown, err.Error(), err)
	}
}
