package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when no bearer credential was supplied or it is malformed.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned when no user owns the supplied token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrValidation is returned when user input is rejected.
	ErrValidation = errors.New("validation failed")

	// ErrNameRequired is returned when a user is created with a blank name.
	ErrNameRequired = fmt.Errorf("%w: name is required", ErrValidation)

	// ErrNameTooLong is returned when a user name does not fit the column.
	ErrNameTooLong = fmt.Errorf("%w: name is too long", ErrValidation)

	// ErrInvalidEmail is returned when the optional email is not an address.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email", ErrValidation)

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenExhausted is returned when no unique token could be generated.
	ErrTokenExhausted = errors.New("could not generate a unique token")
)
