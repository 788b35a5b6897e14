package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	// Precondition not met: the named counter is already zero
	// Returned without side effects and never retried internally
	ErrInsufficientCredit = errors.New("insufficient credit")

	// Transient storage conflict, retried a bounded number of times
	// before surfacing to the caller
	ErrConcurrentUpdate = errors.New("concurrent balance update conflict")

	// The scoring collaborator is unavailable, erroring or timed out
	// No credit is consumed when this is returned
	ErrScoringUnavailable = errors.New("scoring service unavailable")

	ErrUnknownCreditKind  = errors.New("unknown credit kind")
	ErrUnknownProductType = errors.New("unknown product type")
	ErrUnknownPriceOption = errors.New("no such product price option")
	ErrEmptyImage         = errors.New("image payload is empty")

	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrAnalysisNotFound = errors.New("analysis record not found")
)
