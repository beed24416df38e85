package roster

import "errors"

var (
	// ErrStaffNotFound is returned when no member has the requested ID.
	ErrStaffNotFound = errors.New("staff member not found")

	// ErrInvalidName is returned when enlisting without a name.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidTeam is returned for an unknown team type.
	ErrInvalidTeam = errors.New("team type must be Repair or Installation")

	// ErrInvalidRole is returned for an unknown role.
	ErrInvalidRole = errors.New("role must be Admin or Staff")
)
