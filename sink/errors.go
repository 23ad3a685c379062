package sink

import "errors"

var (
	// ErrOpen indicates a failure to open or initialize a sink's backing
	// resource.
	ErrOpen = errors.New("sink: open")
	// ErrWrite indicates a failure while writing a serialized record.
	ErrWrite = errors.New("sink: write")
	// ErrRotate indicates a failure during file rotation.
	ErrRotate = errors.New("sink: rotate")
)
