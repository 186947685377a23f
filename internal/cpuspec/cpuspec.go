// Package cpuspec summarises the host CPU for the session start log.
package cpuspec

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"github.com/u-stem/koto/internal/logger"
)

// simdFeatures are listed best first.
var simdFeatures = []struct {
	id   cpuid.FeatureID
	name string
}{
	{cpuid.AVX512F, "avx512f"},
	{cpuid.AVX2, "avx2"},
	{cpuid.FMA3, "fma3"},
	{cpuid.AVX, "avx"},
	{cpuid.SSE42, "sse4.2"},
	{cpuid.SSE4, "sse4.1"},
	{cpuid.SSE2, "sse2"},
	{cpuid.ASIMD, "neon"},
}

// CPUSpec describes the processor the audio thread runs on.
type CPUSpec struct {
	BrandName      string
	Vendor         string
	Arch           string
	PhysicalCores  int
	LogicalCores   int
	ThreadsPerCore int
	FrequencyHz    int64
	L1DataCache    int // bytes, -1 when unknown
	SIMD           []string
}

// GetCPUSpec reads the host CPU through cpuid.
func GetCPUSpec() CPUSpec {
	c := cpuid.CPU
	spec := CPUSpec{
		BrandName:      strings.TrimSpace(c.BrandName),
		Vendor:         c.VendorString,
		Arch:           runtime.GOARCH,
		PhysicalCores:  c.PhysicalCores,
		LogicalCores:   c.LogicalCores,
		ThreadsPerCore: c.ThreadsPerCore,
		FrequencyHz:    c.Hz,
		L1DataCache:    c.Cache.L1D,
	}
	for _, f := range simdFeatures {
		if c.Supports(f.id) {
			spec.SIMD = append(spec.SIMD, f.name)
		}
	}
	return spec
}

// BestSIMD returns the widest vector extension, or "none".
func (c CPUSpec) BestSIMD() string {
	if len(c.SIMD) == 0 {
		return "none"
	}
	return c.SIMD[0]
}

// Cores returns the physical core count, falling back to logical cores and
// then to the Go runtime when cpuid cannot tell.
func (c CPUSpec) Cores() int {
	switch {
	case c.PhysicalCores > 0:
		return c.PhysicalCores
	case c.LogicalCores > 0:
		return c.LogicalCores
	default:
		return runtime.NumCPU()
	}
}

func (c CPUSpec) String() string {
	brand := c.BrandName
	if brand == "" {
		brand = "unknown CPU"
	}
	return fmt.Sprintf("%s (%s, %d cores, %s)", brand, c.Arch, c.Cores(), c.BestSIMD())
}

// Fields returns the summary as log fields.
func (c CPUSpec) Fields() []logger.Field {
	return []logger.Field{
		logger.String("cpu", c.BrandName),
		logger.String("cpu_vendor", c.Vendor),
		logger.String("arch", c.Arch),
		logger.Int("cores", c.Cores()),
		logger.Int("logical_cores", c.LogicalCores),
		logger.Int64("cpu_hz", c.FrequencyHz),
		logger.String("simd", c.BestSIMD()),
	}
}
