package mem

import "sync"
import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/iscmem/lib"
import "github.com/bnclabs/iscmem/task"

// Context is a hierarchical, quota-enforced memory arena. All exported
// methods are safe for concurrent use by multiple goroutines; the
// internal mutex is only ever held across pure bookkeeping, never across
// a call into the backend allocator, so a custom backend is free to
// re-enter the context (e.g. to allocate its own scratch space) without
// deadlocking.
type Context struct {
	mu sync.Mutex

	name     string
	backend  backend
	flagbits atomic.Uint32
	opts     lib.Config

	quota    int64
	inUse    int64
	maxInUse int64
	loWater  int64 // reserved: spec.md's data model lists these fields but
	hiWater  int64 // defines no operation that sets them; always zero.

	records map[uintptr]*record
	sizes   map[uintptr]int
	pools   map[*Pool]struct{}

	destroyQueue []destroyEntry

	refcount  int
	terminal  bool
	torndown  bool
}

type destroyEntry struct {
	task  task.Task
	event task.Event
}

// Create builds a context backed by the Go heap. name identifies the
// context in trace output and diagnostic dumps; it need not be unique.
func Create(name string, configs ...lib.Config) (*Context, error) {
	return CreateExtended(name, nil, nil, nil, configs...)
}

// CreateExtended builds a context backed by a caller-supplied alloc/free
// pair instead of the Go heap. alloc and free must both be nil (fall back
// to the default backend) or both non-nil.
func CreateExtended(name string, alloc AllocFunc, free FreeFunc, arg interface{}, configs ...lib.Config) (*Context, error) {
	if (alloc == nil) != (free == nil) {
		programerr("mem: CreateExtended requires both alloc and free, or neither")
	}

	cfg := mergeConfig(configs...)

	b := defaultBackend()
	if alloc != nil {
		b = backend{alloc: alloc, free: free, arg: arg}
	}

	c := &Context{
		name:     name,
		backend:  b,
		opts:     cfg,
		quota:    cfg.Int64("quota"),
		records:  make(map[uintptr]*record),
		sizes:    make(map[uintptr]int),
		pools:    make(map[*Pool]struct{}),
		refcount: 1,
	}
	c.flagbits.Store(uint32(flagsFromConfig(cfg)))
	return c, nil
}

// flags returns the current flag set. Reads are lock-free so the hot
// Get/Put path never contends with SetFlags/ClearFlags.
func (c *Context) flags() Flag {
	return Flag(c.flagbits.Load())
}

// Attach increments the context's reference count and hands the caller a
// new reference through dst, mirroring the convention every ownership
// transfer in this package follows: the source pointer is untouched, the
// destination is populated.
func (c *Context) Attach(dst **Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal {
		programerr("mem: attach on a context already scheduled for destruction")
	}
	c.refcount++
	*dst = c
}

// Detach drops one reference to *h and clears it. When the reference
// count reaches zero the context tears down: an outstanding pool is
// fatal; an outstanding debug record is fatal if DestroyCheck is set and
// is otherwise dumped to stderr; then its destroy queue drains.
func Detach(h **Context) {
	c := *h
	*h = nil
	if c == nil {
		return
	}
	c.release()
}

// Destroy forcibly marks the context terminal (no further Attach or
// allocation is permitted) and releases the caller's own reference. If
// other references are still outstanding, teardown is deferred until
// their Detach brings the count to zero.
func Destroy(h **Context) {
	c := *h
	if c == nil {
		return
	}
	c.mu.Lock()
	c.terminal = true
	c.mu.Unlock()
	Detach(h)
}

func (c *Context) release() {
	c.mu.Lock()
	c.refcount--
	n := c.refcount
	c.mu.Unlock()
	if n > 0 {
		return
	}
	c.teardown()
}

func (c *Context) teardown() {
	c.mu.Lock()
	if c.torndown {
		c.mu.Unlock()
		return
	}
	c.torndown = true
	npools := len(c.pools)
	records := c.records
	destroyCheck := c.flags().Has(DestroyCheck)
	queue := c.destroyQueue
	c.destroyQueue = nil
	c.mu.Unlock()

	if npools > 0 {
		programerr("mem: context %q destroyed with %d outstanding pool(s)", c.name, npools)
	}
	if len(records) > 0 {
		if destroyCheck {
			programerr("mem: context %q destroyed with %d outstanding allocation(s)", c.name, len(records))
		}
		c.dumpLeaks(records)
	}

	for _, e := range queue {
		e.task.Send(e.event)
	}
}

// OnDestroy registers t to be sent ev once the context finishes teardown.
// Ownership of ev is transferred: the caller's variable is cleared.
// Fails with ErrShuttingDown if the context is already terminal, since a
// terminal context may tear down (and drain its queue) at any moment.
func (c *Context) OnDestroy(t task.Task, ev *task.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal {
		return ErrShuttingDown
	}
	c.destroyQueue = append(c.destroyQueue, destroyEntry{task: t, event: *ev})
	*ev = task.Event{}
	return nil
}

// SetQuota sets the maximum number of bytes the context will let its
// caller have outstanding at once. A quota of zero means unlimited.
func (c *Context) SetQuota(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quota = n
}

// GetQuota returns the current quota, zero if unlimited.
func (c *Context) GetQuota() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quota
}

// InUse returns the number of bytes currently outstanding.
func (c *Context) InUse() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inUse
}

// SetFlags turns on the given flags in addition to whatever is already set.
func (c *Context) SetFlags(f Flag) {
	for {
		old := c.flagbits.Load()
		if c.flagbits.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// ClearFlags turns off the given flags.
func (c *Context) ClearFlags(f Flag) {
	for {
		old := c.flagbits.Load()
		if c.flagbits.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// Preallocate is a no-op retained for interface completeness; this
// implementation never pre-touches backend memory ahead of demand.
func (c *Context) Preallocate(int) error { return ErrNotImplemented }

// Restore is a no-op counterpart to Preallocate.
func (c *Context) Restore() error { return ErrNotImplemented }

// ptrOf returns buf's backing-array address, or nil only when buf is
// itself a nil slice. Indexing &buf[0] would panic on a non-nil,
// zero-length slice (the shape Get(0) returns), so this goes through
// unsafe.SliceData instead, which is defined for that case.
func ptrOf(buf []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(buf))
}
