// Command memstat reports the block-size ladder a pooled allocator would
// use between -minblock and -maxblock, and, with -demo, exercises a
// context and a pool end to end and prints a Stats dump.
package main

import "flag"
import "fmt"
import "os"

import "github.com/bnclabs/iscmem/mem"

var options struct {
	minblock int64
	maxblock int64
	demo     bool
}

func argParse() {
	flag.Int64Var(&options.minblock, "minblock", 32, "minimum block size")
	flag.Int64Var(&options.maxblock, "maxblock", 1024*1024, "maximum block size")
	flag.BoolVar(&options.demo, "demo", false, "run a context+pool demo and print Stats")
	flag.Parse()
}

func main() {
	argParse()
	tellutilization()
	if options.demo {
		rundemo()
	}
}

func tellutilization() {
	sizes := mem.Blocksizes(options.minblock, options.maxblock)
	fmt.Println(sizes, options.minblock, options.maxblock)
	for i := range sizes[1:] {
		u := (float64(sizes[i]+sizes[i+1]) / 2.0) / float64(sizes[i+1])
		fmt.Printf("size %8v, util %v\n", sizes[i+1], u)
	}
	fmt.Printf("total %v size pools\n", len(sizes))
}

func rundemo() {
	ctx, err := mem.Create("memstat-demo")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx.SetFlags(mem.Record)

	elemSize := mem.SuitableSize(mem.Blocksizes(options.minblock, options.maxblock), 128)
	pool, err := mem.NewPool(ctx, int(elemSize))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pool.SetFillCount(16)
	pool.SetFreeMax(32)

	bufs := make([][]byte, 0, 8)
	for i := 0; i < 8; i++ {
		buf, err := pool.Get()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		bufs = append(bufs, buf)
	}
	for i := range bufs {
		pool.Put(&bufs[i])
	}

	pool.Destroy(&pool)
	ctx.Stats(os.Stdout)
	mem.Destroy(&ctx)
}
