package relationship

import "errors"

var (
	ErrInvalidID            = errors.New("relationship: invalid id")
	ErrInvalidFromParty     = errors.New("relationship: invalid from party")
	ErrInvalidToParty       = errors.New("relationship: invalid to party")
	ErrInvalidType          = errors.New("relationship: invalid relationship type")
	ErrTypeNotFound         = errors.New("relationship: relationship type not found")
	ErrRelationshipNotFound = errors.New("relationship: not found")
	ErrPartyNotFound        = errors.New("relationship: party not found")
)
