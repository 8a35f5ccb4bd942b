package abr

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLadder is returned when a manifest yields no representations.
	ErrEmptyLadder = errors.New("quality ladder is empty")

	// ErrUnsortedLadder is returned when representation bitrates are not
	// strictly increasing by index.
	ErrUnsortedLadder = errors.New("quality ladder bitrates must be strictly increasing")

	// ErrInvalidReservoir is returned when reservoir bounds violate
	// 0 <= min_low <= low <= max_low < high.
	ErrInvalidReservoir = errors.New("invalid reservoir bounds")

	// ErrInvalidConfig is returned for strategy options that cannot work together.
	ErrInvalidConfig = errors.New("invalid strategy configuration")

	// ErrLadderAlreadyBuilt is returned when a second manifest arrives for a session.
	ErrLadderAlreadyBuilt = errors.New("quality ladder already built for session")
)

// ConfigError is a fatal session setup failure. Err is one of the sentinel
// errors above, so callers can match with errors.Is.
type ConfigError struct {
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return "abr configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("abr configuration: %s: %s", e.Err.Error(), e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(err error, format string, args ...any) error {
	return &ConfigError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a session setup failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
