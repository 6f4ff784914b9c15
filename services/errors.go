package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Expected, user-facing duel lifecycle outcomes.
	ErrTierLimitExceeded       = errors.New("subscription tier does not permit starting a new duel")
	ErrInvalidToken            = errors.New("invite token does not match any duel")
	ErrSelfChallengeNotAllowed = errors.New("cannot accept your own duel invite")
	ErrAlreadyAccepted         = errors.New("duel has already been accepted")
	ErrDuelExpired             = errors.New("duel invite has expired")
	ErrDuelNotActive           = errors.New("duel is not active")

	// Validation and business rules.
	ErrValidationFailed = errors.New("validation failed")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrInvalidTier      = errors.New("invalid subscription tier")

	// Authentication and authorization.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific lookups.
	ErrUserNotFound = errors.New("user not found")
	ErrDuelNotFound = errors.New("duel not found")
)
