package forex

import "errors"

var (
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrInvalidUsername      = errors.New("username is required")
	ErrWeakPassword         = errors.New("password does not satisfy the policy")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountNotFound      = errors.New("account not found")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnknownCurrency      = errors.New("unknown currency")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrRateFetchFailed      = errors.New("rate fetch failed")
)
