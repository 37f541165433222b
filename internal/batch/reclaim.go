package batch

import (
	"runtime"
	"runtime/debug"
)

// Reclaimer returns memory to the host between files and chunks.
type Reclaimer interface {
	Light()
	Deep()
}

type RuntimeReclaimer struct{}

func (RuntimeReclaimer) Light() {
	runtime.GC()
}

func (RuntimeReclaimer) Deep() {
	debug.FreeOSMemory()
}

type noopReclaimer struct{}

func (noopReclaimer) Light() {}
func (noopReclaimer) Deep()  {}
