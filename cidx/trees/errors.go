package trees

import "errors"

var (
	// ErrSealed is returned (or raised) when a builder is used after it handed
	// its tree to a read-only index.
	ErrSealed = errors.New("index builder already finished")
	// ErrNilRecord is returned when a nil call record is added to the engine.
	ErrNilRecord = errors.New("cannot index nil call record")
)
