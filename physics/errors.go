package physics

import "errors"

var (
	ErrInvalidConfig = errors.New("physics: invalid world configuration")
	ErrConfigLocked  = errors.New("physics: world cannot be reconfigured after stepping")
	ErrInvalidBody   = errors.New("physics: invalid body definition")
	ErrUnknownBody   = errors.New("physics: unknown or removed body")
	ErrInvalidStep   = errors.New("physics: step duration must be finite and non-negative")
)
