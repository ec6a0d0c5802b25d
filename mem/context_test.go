package mem

import "sync"
import "testing"

import "github.com/stretchr/testify/require"

func TestGetPutLifecycle(t *testing.T) {
	ctx, err := Create("t1")
	require.NoError(t, err)

	buf, err := ctx.Get(64)
	require.NoError(t, err)
	require.Len(t, buf, 64)
	require.EqualValues(t, 64, ctx.InUse())

	require.NoError(t, ctx.Put(&buf, 64))
	require.Nil(t, buf)
	require.EqualValues(t, 0, ctx.InUse())

	Detach(&ctx)
}

func TestAllocateFreeStrdup(t *testing.T) {
	ctx, err := Create("t2")
	require.NoError(t, err)

	s, err := ctx.Strdup("hello")
	require.NoError(t, err)
	require.Equal(t, "hello", string(s[:5]))
	require.EqualValues(t, 0, s[5])

	require.NoError(t, ctx.Free(&s))
	require.Nil(t, s)

	Detach(&ctx)
}

func TestAllocateRecordsCallerSite(t *testing.T) {
	ctx, err := Create("t9b")
	require.NoError(t, err)
	ctx.SetFlags(Record)

	buf, err := ctx.Allocate(8)
	require.NoError(t, err)

	records := ctx.liveRecords()
	require.Len(t, records, 1)
	for _, rec := range records {
		// Must point at this call site, not somewhere inside alloc.go's
		// own Allocate/getImpl plumbing.
		require.Contains(t, rec.file, "context_test.go")
	}

	require.NoError(t, ctx.Free(&buf))
	Detach(&ctx)
}

func TestQuotaExceeded(t *testing.T) {
	ctx, err := Create("t3")
	require.NoError(t, err)
	ctx.SetQuota(100)

	buf, err := ctx.Get(64)
	require.NoError(t, err)

	_, err = ctx.Get(64)
	require.ErrorIs(t, err, ErrQuota)

	require.NoError(t, ctx.Put(&buf, 64))
	Detach(&ctx)
}

func TestQuotaHoldsUnderConcurrentGet(t *testing.T) {
	ctx, err := Create("t3b")
	require.NoError(t, err)
	ctx.SetQuota(100)

	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup
	bufs := make(chan []byte, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf, err := ctx.Get(10)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			if err == nil {
				bufs <- buf
			}
		}()
	}
	wg.Wait()
	close(bufs)

	// quota=100, size=10: at most 10 of the 20 racing Gets can succeed
	// without the reservation crossing the quota, and every failure must
	// be ErrQuota specifically, not some other condition.
	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, ErrQuota)
		}
	}
	require.Equal(t, 10, ok)
	require.EqualValues(t, 100, ctx.InUse())

	for buf := range bufs {
		require.NoError(t, ctx.Put(&buf, 10))
	}
	Detach(&ctx)
}

func TestGetZeroSize(t *testing.T) {
	ctx, err := Create("t4")
	require.NoError(t, err)

	buf, err := ctx.Get(0)
	require.NoError(t, err)
	require.NotNil(t, buf)
	require.Len(t, buf, 0)

	require.NoError(t, ctx.Put(&buf, 0))
	Detach(&ctx)
}

func TestLeakDetectedAtDestroy(t *testing.T) {
	ctx, err := Create("t5")
	require.NoError(t, err)
	ctx.SetFlags(Record)

	_, err = ctx.Get(32)
	require.NoError(t, err)

	// Destroy without DestroyCheck merely dumps the leak, it does not
	// panic.
	Destroy(&ctx)
}

func TestDestroyCheckPanicsOnLeak(t *testing.T) {
	ctx, err := Create("t6")
	require.NoError(t, err)
	ctx.SetFlags(Record | DestroyCheck)

	_, err = ctx.Get(32)
	require.NoError(t, err)

	require.Panics(t, func() { Destroy(&ctx) })
}

func TestShuttingDownRejectsGet(t *testing.T) {
	ctx, err := Create("t7")
	require.NoError(t, err)
	Destroy(&ctx)

	// ctx is nil now (Destroy clears the handle); exercise the
	// terminal-flag path via a second reference obtained before Destroy.
	orig, err := Create("t7b")
	require.NoError(t, err)
	var ref *Context
	orig.Attach(&ref)
	Destroy(&orig)

	_, err = ref.Get(16)
	require.ErrorIs(t, err, ErrShuttingDown)

	Detach(&ref)
}

func TestOverrunDetected(t *testing.T) {
	ctx, err := Create("t8")
	require.NoError(t, err)
	ctx.SetFlags(CheckOverrun)

	buf, err := ctx.Get(8)
	require.NoError(t, err)
	require.Equal(t, 8+overrunGuard, cap(buf))

	// Writing past the requested size within capacity corrupts the guard
	// region and must be caught at Put.
	buf = append(buf, 0xff)
	require.Panics(t, func() { ctx.Put(&buf, 8) })
}

func TestFillOnAllocAndFree(t *testing.T) {
	ctx, err := Create("t9")
	require.NoError(t, err)
	ctx.SetFlags(FillOnAlloc | FillOnFree)

	buf, err := ctx.Get(4)
	require.NoError(t, err)
	for _, b := range buf {
		require.EqualValues(t, fillAllocByte, b)
	}

	alias := buf
	require.NoError(t, ctx.Put(&buf, 4))
	for _, b := range alias {
		require.EqualValues(t, fillFreeByte, b)
	}
}
