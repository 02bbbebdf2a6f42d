package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken           = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials     = errors.New("INVALID_CREDENTIALS")
	ErrUserExists             = errors.New("USER_EXISTS")
	ErrAlreadyRunning         = errors.New("ALREADY_RUNNING")
	ErrNoNumbers              = errors.New("NO_NUMBERS")
	ErrSocxTokenMissing       = errors.New("SOCX_TOKEN_MISSING")
	ErrSocxTokenInvalid       = errors.New("SOCX_TOKEN_INVALID")
	ErrProductNotFound        = errors.New("PRODUCT_NOT_FOUND")
	ErrInvalidModuleSelection = errors.New("INVALID_MODULE_SELECTION")
	ErrEmptyPromos            = errors.New("EMPTY_PROMOS")
	ErrProjectNotFound        = errors.New("PROJECT_NOT_FOUND")
	ErrNumberNotFound         = errors.New("NUMBER_NOT_FOUND")
)
