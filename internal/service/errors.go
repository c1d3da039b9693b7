package service

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every error caused by bad user input.
// Such errors are reported back to the user and never treated as faults.
var ErrValidation = errors.New("validation error")

var (
	ErrIncompleteFields = fmt.Errorf("%w: please complete all fields", ErrValidation)
	ErrUsernameTaken    = fmt.Errorf("%w: the username you entered is already in use", ErrValidation)
	ErrEmailTaken       = fmt.Errorf("%w: the email you entered is already in use", ErrValidation)
	ErrInvalidURL       = fmt.Errorf("%w: please enter a valid URL", ErrValidation)
)

// ErrInvalidCredentials is deliberately the same for an unknown login and a wrong password.
var ErrInvalidCredentials = errors.New("the username/email or password you entered is invalid")

var ErrNotFound = errors.New("the URL does not exist")

var (
	ErrUnauthenticated = errors.New("you must be logged in to do that")
	ErrNotOwner        = errors.New("you don't have permission to do that")
)
