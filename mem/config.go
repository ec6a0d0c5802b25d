package mem

import "github.com/bnclabs/iscmem/lib"

// DefaultConfig seeds every Create/CreateExtended call: settings supplied
// at the call site are mixed on top of it via lib.Mixinconfig, so a
// process can set its defaults once (e.g. from a flags.Parse or a config
// file) and have every context pick them up.
var DefaultConfig = lib.Config{
	"quota":            int64(0),
	"trace":            false,
	"record":           false,
	"fill_on_alloc":    false,
	"fill_on_free":     false,
	"check_overrun":    false,
	"destroy_check":    false,
	"init_chunk_size":  int64(0),
	"target_size":      int64(0),
}

func mergeConfig(configs ...lib.Config) lib.Config {
	args := make([]interface{}, 0, len(configs)+1)
	args = append(args, DefaultConfig)
	for _, c := range configs {
		args = append(args, c)
	}
	return lib.Mixinconfig(args...)
}

func flagsFromConfig(cfg lib.Config) Flag {
	var f Flag
	if cfg.Bool("trace") {
		f |= Trace
	}
	if cfg.Bool("record") {
		f |= Record
	}
	if cfg.Bool("fill_on_alloc") {
		f |= FillOnAlloc
	}
	if cfg.Bool("fill_on_free") {
		f |= FillOnFree
	}
	if cfg.Bool("check_overrun") {
		f |= CheckOverrun
	}
	if cfg.Bool("destroy_check") {
		f |= DestroyCheck
	}
	return f
}
