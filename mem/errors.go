package mem

import "errors"
import "fmt"

// Expected, recoverable conditions (spec.md tier 1): always returned as a
// plain error, never panicked. Test with errors.Is.
var (
	// ErrOutOfMemory is returned when the backend allocator itself fails
	// (returns nil / reports an error).
	ErrOutOfMemory = errors.New("mem: out of memory")

	// ErrQuota is returned when a context's (or pool's) configured quota
	// would be exceeded by a request.
	ErrQuota = errors.New("mem: quota exceeded")

	// ErrShuttingDown is returned by Get, Allocate, Strdup, NewPool and
	// OnDestroy once Destroy has been called on the context. Releasing
	// memory (Put, Free) still works on such a context.
	ErrShuttingDown = errors.New("mem: context shutting down")

	// ErrNotImplemented is returned by the preallocate/restore no-ops;
	// see the Open Question resolution for those operations.
	ErrNotImplemented = errors.New("mem: not implemented")
)

// CorruptionError marks a tier-3 condition: the allocator detected memory
// that was not in the state it itself left it in (a blown guard region, a
// debug-record mismatch). These are unrecoverable by design and are
// always delivered via panic, never returned.
type CorruptionError struct {
	Context string
	Reason  string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("mem: corruption in context %q: %s", e.Context, e.Reason)
}

func corrupt(ctx, reason string, args ...interface{}) {
	panic(&CorruptionError{Context: ctx, Reason: fmt.Sprintf(reason, args...)})
}

func programerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
