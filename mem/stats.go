package mem

import "fmt"
import "io"
import "os"

import "github.com/bnclabs/iscmem/lib"

// Stats renders a diagnostic summary of the context's current state to w:
// a one-line JSON summary followed, when Record is set, by one line per
// live allocation.
func (c *Context) Stats(w io.Writer) {
	c.mu.Lock()
	summary := map[string]interface{}{
		"name":              c.name,
		"in_use":            c.inUse,
		"max_in_use":        c.maxInUse,
		"quota":             c.quota,
		"pools":             len(c.pools),
		"records":           len(c.records),
		"init_chunk_size":   c.opts.Int64("init_chunk_size"),
		"target_size":       c.opts.Int64("target_size"),
	}
	c.mu.Unlock()

	fmt.Fprintln(w, lib.Prettystats(summary, false))
	for ptr, rec := range c.liveRecords() {
		fmt.Fprintf(w, "%#x size=%d %s:%d\n", ptr, rec.size, rec.file, rec.line)
	}
}

func (c *Context) dumpLeaks(records map[uintptr]*record) {
	fmt.Fprintf(os.Stderr, "mem: context %q destroyed with %d outstanding allocation(s):\n", c.name, len(records))
	for ptr, rec := range records {
		fmt.Fprintf(os.Stderr, "%#x size=%d %s:%d\n", ptr, rec.size, rec.file, rec.line)
	}
}
