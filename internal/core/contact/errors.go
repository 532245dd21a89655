package contact

import "errors"

var (
	ErrInvalidID            = errors.New("contact: invalid id")
	ErrInvalidKind          = errors.New("contact: invalid kind")
	ErrInvalidEmailAddress  = errors.New("contact: invalid email address")
	ErrInvalidPostalAddress = errors.New("contact: invalid postal address")
	ErrInvalidTelecomNumber = errors.New("contact: invalid telecom number")
	ErrMechanismNotFound    = errors.New("contact: mechanism not found")
)
