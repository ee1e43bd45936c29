package ingest

import "errors"

// Reasons a call record line or switch line is rejected.
var (
	ErrFieldCount    = errors.New("too few fields")
	ErrFieldWidth    = errors.New("field has wrong width")
	ErrUnknownSwitch = errors.New("unknown switch")
	ErrDuplicateHop  = errors.New("consecutive duplicate hop")
	ErrPathOrigin    = errors.New("path does not start at the dialling switch")
	ErrTimestamp     = errors.New("malformed timestamp")
	ErrInvalidSwitch = errors.New("invalid switch id")
)

// ErrCorruptIndex is returned by Load when post-build validation fails.
var ErrCorruptIndex = errors.New("index failed validation")

var rejectReasons = []error{
	ErrFieldCount,
	ErrFieldWidth,
	ErrUnknownSwitch,
	ErrDuplicateHop,
	ErrPathOrigin,
	ErrTimestamp,
}

// reasonOf maps a parse error onto the sentinel it wraps.
func reasonOf(err error) error {
	for _, r := range rejectReasons {
		if errors.Is(err, r) {
			return r
		}
	}
	return err
}
