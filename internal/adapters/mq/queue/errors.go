package queue

import "errors"

// ErrClosed is returned when submitting to a closed queue.
var ErrClosed = errors.New("queue closed")
