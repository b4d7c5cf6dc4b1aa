package core

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors wrap one of these so callers can classify a
// failure with errors.Is instead of matching messages.
var (
	ErrValidation  = errors.New("invalid input")
	ErrReferential = errors.New("unknown reference")
	ErrStorage     = errors.New("storage failure")
)

var (
	ErrEmptyName           = fmt.Errorf("%w: empty account name", ErrValidation)
	ErrNameTooLong         = fmt.Errorf("%w: account name too long (max 100 characters)", ErrValidation)
	ErrEmptyAccountType    = fmt.Errorf("%w: empty account type", ErrValidation)
	ErrAccountTypeTooLong  = fmt.Errorf("%w: account type too long (max 50 characters)", ErrValidation)
	ErrEmptyDescription    = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyCategoryName   = fmt.Errorf("%w: empty category name", ErrValidation)
	ErrCategoryNameTooLong = fmt.Errorf("%w: category name too long (max 50 characters)", ErrValidation)
	ErrZeroDate            = fmt.Errorf("%w: date cannot be zero", ErrValidation)
	ErrMissingAccount      = fmt.Errorf("%w: missing account id", ErrValidation)

	ErrUnknownAccount = fmt.Errorf("%w: bank account does not exist", ErrReferential)
)
