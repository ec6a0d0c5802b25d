package task

import "errors"

// ErrClosed is returned by Queue.Send once the queue has been Closed.
var ErrClosed = errors.New("task: queue closed")
