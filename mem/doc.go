// Package mem implements the memory-management core for a DNS
// infrastructure library: a hierarchical, quota-enforced, thread-safe
// memory context (arena) with debug-tracking, layered fixed-size object
// pools, and a destroy-notification dispatch used to break shutdown-order
// dependencies between long-lived subsystems.
//
// A Context wraps an allocator backend (the host's system allocator by
// default, or a caller-supplied alloc/free pair), enforces an optional
// byte quota, and optionally records every live allocation for leak and
// double-free detection. Pool layers a fixed-element-size freelist on
// top of a Context to amortize allocation cost for same-size objects
// (DNS messages, RR records, task events) without a general slab
// allocator.
//
// Types and functions in this package are safe for concurrent use across
// goroutines for a Context; a Pool is not, unless AssociateLock has been
// called with a shared sync.Locker.
package mem
