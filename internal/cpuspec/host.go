package cpuspec

import (
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/u-stem/koto/internal/logger"
)

// HostSpec describes the operating system and memory of the machine.
type HostSpec struct {
	Platform        string
	PlatformVersion string
	KernelVersion   string
	MemoryTotal     uint64
	MemoryAvailable uint64
}

// GetHostSpec queries the host. Fields that cannot be read stay empty and
// the first error is returned alongside the partial result.
func GetHostSpec() (HostSpec, error) {
	var spec HostSpec
	var firstErr error

	if info, err := host.Info(); err == nil {
		spec.Platform = info.Platform
		spec.PlatformVersion = info.PlatformVersion
		spec.KernelVersion = info.KernelVersion
	} else {
		firstErr = err
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		spec.MemoryTotal = vm.Total
		spec.MemoryAvailable = vm.Available
	} else if firstErr == nil {
		firstErr = err
	}

	return spec, firstErr
}

// Fields returns the spec as structured log fields.
func (h HostSpec) Fields() []logger.Field {
	return []logger.Field{
		logger.String("platform", h.Platform),
		logger.String("platform_version", h.PlatformVersion),
		logger.String("kernel", h.KernelVersion),
		logger.Uint64("memory_total_mb", h.MemoryTotal>>20),
		logger.Uint64("memory_available_mb", h.MemoryAvailable>>20),
	}
}
