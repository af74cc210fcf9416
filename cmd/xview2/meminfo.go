package main

// helper to track memory growth across forward passes

import (
	"sync"
	"syscall"

	"k8s.io/klog/v2"
)

// SI is the subset of linux sysinfo used to measure RAM growth.
// Ref. http://man7.org/linux/man-pages/man2/sysinfo.2.html
type SI struct {
	TotalRam uint64 // total usable main memory size [kB]
	FreeRam  uint64 // available memory size [kB]
	mu       sync.Mutex
}

var sis = &SI{}

// CPUInfo reads the linux sysinfo data structure.
func CPUInfo() *SI {
	si := &syscall.Sysinfo_t{}
	if err := syscall.Sysinfo(si); err != nil {
		klog.Fatalf("syscall.Sysinfo: %v", err)
	}

	sis.mu.Lock()
	defer sis.mu.Unlock()

	unit := uint64(si.Unit)
	sis.TotalRam = toKB(uint64(si.Totalram), unit)
	sis.FreeRam = toKB(uint64(si.Freeram), unit)

	return sis
}

// toKB converts a sysinfo memory count in units of `unit` bytes to kB.
func toKB(count, unit uint64) uint64 {
	return count * unit / 1024
}
