// Package sys exposes the OS-level readings the cache layer consults:
// process resident memory for the corrective eviction pass and total system
// memory for sizing defaults. All functions degrade to "unavailable" rather
// than returning errors.
package sys

import (
	"os"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessRSS returns the resident set size of the current process in bytes.
// The second return is false when no reading is available on this platform.
func ProcessRSS() (uint64, bool) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, false
	}
	info, err := p.MemoryInfo()
	if err != nil || info == nil {
		return 0, false
	}
	return info.RSS, true
}

// TotalMemory returns the total system memory in bytes, or zero if gopsutil
// cannot read it.
func TotalMemory() uint64 {
	if vmStat, err := mem.VirtualMemory(); err == nil {
		return vmStat.Total
	}
	return 0
}

// AvailableMemory returns the memory available to the process in bytes, or
// zero if unavailable.
func AvailableMemory() uint64 {
	if vmStat, err := mem.VirtualMemory(); err == nil {
		return vmStat.Available
	}
	return 0
}
