package ranking

import "errors"

// Sentinel kinds for ranking errors. All indicate a caller contract violation.
var (
	ErrUnknownKind     = errors.New("unknown entity kind")
	ErrUnknownSortKey  = errors.New("unknown sort key")
	ErrOutOfRangePage  = errors.New("page out of range")
	ErrInvalidPageSize = errors.New("invalid page size")
)
