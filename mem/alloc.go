package mem

import "github.com/bnclabs/iscmem/log"

// Get returns a zero-length-safe, size-tracked allocation of exactly size
// bytes. The caller must give the same size back to Put. Returns
// ErrOutOfMemory if the backend fails, ErrQuota if the context's quota
// would be exceeded, ErrShuttingDown if the context is terminal.
func (c *Context) Get(size int) ([]byte, error) {
	return c.getImpl(size, 2)
}

// getImpl is Get's implementation, parameterized on the recordAlloc skip
// depth so Allocate can share it without attributing the debug record to
// Allocate's own call site instead of Allocate's caller.
func (c *Context) getImpl(size int, skip int) ([]byte, error) {
	if size < 0 {
		programerr("mem: Get called with negative size %d", size)
	}

	effective := size
	if c.flags().Has(CheckOverrun) {
		effective = size + overrunGuard
	}

	// The quota check and the reservation against inUse happen under the
	// same critical section, so two goroutines racing Get can never both
	// observe headroom and both proceed: whichever reserves first makes
	// the other see the updated inUse. The reservation is rolled back
	// under the lock if the backend call below fails.
	c.mu.Lock()
	if c.terminal {
		c.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if c.quota > 0 && c.inUse+int64(effective) > c.quota {
		c.mu.Unlock()
		return nil, ErrQuota
	}
	c.inUse += int64(size)
	if c.inUse > c.maxInUse {
		c.maxInUse = c.inUse
	}
	c.mu.Unlock()

	ptr := c.backend.alloc(c.backend.arg, effective)
	if ptr == nil {
		c.mu.Lock()
		c.inUse -= int64(size)
		c.mu.Unlock()
		return nil, ErrOutOfMemory
	}
	full := rawSlice(ptr, effective)

	if c.flags().Has(CheckOverrun) {
		for i := size; i < effective; i++ {
			full[i] = overrunByte
		}
	}
	if c.flags().Has(FillOnAlloc) {
		for i := 0; i < size; i++ {
			full[i] = fillAllocByte
		}
	}

	c.recordAlloc(uintptr(ptr), size, skip)

	if c.flags().Has(Trace) {
		log.Tracef("mem: get ctx=%q size=%d ptr=%p\n", c.name, size, ptr)
	}

	return full[:size:effective], nil
}

// Put releases an allocation obtained from Get. size must match the size
// originally requested. buf is cleared on return, mirroring the
// pointer-clearing convention the C original enforces via macro.
func (c *Context) Put(buf *[]byte, size int) error {
	b := *buf
	*buf = nil
	if b == nil && size == 0 {
		return nil
	}
	ptr := ptrOf(b)
	if ptr == nil {
		programerr("mem: Put called with a nil pointer")
	}

	effective := size
	if c.flags().Has(CheckOverrun) {
		effective = size + overrunGuard
		if cap(b) < effective {
			corrupt(c.name, "put size %d smaller than allocation, guard region missing", size)
		}
		full := b[:effective]
		for i := size; i < effective; i++ {
			if full[i] != overrunByte {
				corrupt(c.name, "overrun guard corrupted past %d bytes at %#x", size, ptr)
			}
		}
	}

	c.recordFree(uintptr(ptr), size)

	if c.flags().Has(FillOnFree) {
		for i := 0; i < size && i < len(b); i++ {
			b[i] = fillFreeByte
		}
	}

	c.backend.free(c.backend.arg, ptr, effective)

	c.mu.Lock()
	c.inUse -= int64(size)
	c.mu.Unlock()

	if c.flags().Has(Trace) {
		log.Tracef("mem: put ctx=%q size=%d ptr=%p\n", c.name, size, ptr)
	}

	return nil
}

// Allocate is the unsized counterpart to Get: it hides the requested size
// in an internal table keyed by address, so Free does not need to be told
// how large the allocation was.
func (c *Context) Allocate(size int) ([]byte, error) {
	// Calls getImpl directly rather than Get, so the debug record's
	// call site is Allocate's caller, not Allocate itself: Get and
	// Allocate sit at the same stack depth above getImpl, so the same
	// skip value attributes correctly from either.
	buf, err := c.getImpl(size, 2)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.sizes[uintptr(ptrOf(buf))] = size
	c.mu.Unlock()
	return buf, nil
}

// Free releases an allocation obtained from Allocate. buf is cleared on
// return.
func (c *Context) Free(buf *[]byte) error {
	b := *buf
	ptr := uintptr(ptrOf(b))

	c.mu.Lock()
	size, ok := c.sizes[ptr]
	if ok {
		delete(c.sizes, ptr)
	}
	c.mu.Unlock()

	if !ok {
		programerr("mem: Free called on a pointer not obtained from Allocate")
	}
	return c.Put(buf, size)
}

// Strdup allocates len(s)+1 bytes through Allocate, copies s into it and
// NUL-terminates it, matching the C convention the original API
// exposes. Release with Free.
func (c *Context) Strdup(s string) ([]byte, error) {
	buf, err := c.Allocate(len(s) + 1)
	if err != nil {
		return nil, err
	}
	copy(buf, s)
	buf[len(s)] = 0
	return buf, nil
}
