package probe

import "time"

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
)

// Defaults applied to zero Config fields.
const (
	DefaultPageSize = 10
	DefaultTimeout  = 10 * time.Second
)
