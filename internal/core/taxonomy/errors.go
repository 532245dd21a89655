package taxonomy

import "errors"

var (
	ErrInvalidKind        = errors.New("taxonomy: invalid kind")
	ErrInvalidDescription = errors.New("taxonomy: invalid description")
	ErrNodeNotFound       = errors.New("taxonomy: node not found")
	ErrParentNotFound     = errors.New("taxonomy: parent node not found")
	ErrDuplicateNode      = errors.New("taxonomy: description already exists")
)
