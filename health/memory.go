package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures a MemoryChecker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap usage fraction that reports
	// degraded. Must be in (0, 1); zero means 0.8.
	WarningThreshold float64

	// CriticalThreshold is the heap usage fraction that reports
	// unhealthy. Must be in (0, 1); zero means 0.95.
	CriticalThreshold float64

	// MaxAlloc is the allocation ceiling in bytes the fractions are
	// measured against. Zero means the bytes obtained from the OS.
	MaxAlloc uint64
}

func (c MemoryCheckerConfig) withDefaults() MemoryCheckerConfig {
	if c.WarningThreshold <= 0 || c.WarningThreshold >= 1 {
		c.WarningThreshold = 0.8
	}
	if c.CriticalThreshold <= 0 || c.CriticalThreshold >= 1 {
		c.CriticalThreshold = 0.95
	}
	if c.CriticalThreshold < c.WarningThreshold {
		c.CriticalThreshold = c.WarningThreshold
	}
	return c
}

// MemoryChecker reports the process heap usage against a ceiling.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a memory checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	return &MemoryChecker{config: config.withDefaults()}
}

// Name returns "memory".
func (m *MemoryChecker) Name() string { return "memory" }

// Check samples runtime memory statistics and grades the usage ratio
// against the configured thresholds.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	ceiling := m.config.MaxAlloc
	if ceiling == 0 {
		ceiling = stats.Sys
	}

	ratio := float64(stats.Alloc) / float64(ceiling)
	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"ceiling_bytes": ceiling,
		"usage_percent": ratio * 100,
		"heap_objects":  stats.HeapObjects,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy(
			fmt.Sprintf("memory usage critical: %.1f%%", ratio*100),
			ErrCheckFailed,
		).WithDetails(details)
	case ratio >= m.config.WarningThreshold:
		return Degraded(
			fmt.Sprintf("memory usage high: %.1f%%", ratio*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("memory usage normal: %.1f%%", ratio*100),
		).WithDetails(details)
	}
}
