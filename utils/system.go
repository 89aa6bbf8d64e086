package utils

import (
	"runtime"
)

// MemUsage returns the heap statistics as key value pairs for a structured
// log record.
func MemUsage() []any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return []any{
		"allocMiB", bToMb(m.Alloc),
		"totalAllocMiB", bToMb(m.TotalAlloc),
		"sysMiB", bToMb(m.Sys),
		"numGC", m.NumGC,
	}
}
