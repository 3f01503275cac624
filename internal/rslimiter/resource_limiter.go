package rslimiter

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/aleister1102/jsenum/internal/config"
	"github.com/rs/zerolog"
)

// ResourceLimiter watches memory and goroutine usage while a crawl runs and
// calls the shutdown callback once when a hard limit is crossed.
type ResourceLimiter struct {
	config           config.ResourceLimiterConfig
	logger           zerolog.Logger
	checkInterval    time.Duration
	memoryWarningMB  int64
	goroutineWarning int
	sample           func() ResourceUsage

	mu               sync.Mutex
	running          bool
	stop             chan struct{}
	wg               sync.WaitGroup
	shutdownCallback func(reason string)
	shutdownOnce     sync.Once
}

// NewResourceLimiter creates a limiter. Zero thresholds take the defaults.
func NewResourceLimiter(cfg config.ResourceLimiterConfig, logger zerolog.Logger) *ResourceLimiter {
	defaults := config.NewDefaultResourceLimiterConfig()
	if cfg.MaxMemoryMB == 0 {
		cfg.MaxMemoryMB = defaults.MaxMemoryMB
	}
	if cfg.MaxGoroutines == 0 {
		cfg.MaxGoroutines = defaults.MaxGoroutines
	}
	if cfg.CheckIntervalSecs == 0 {
		cfg.CheckIntervalSecs = defaults.CheckIntervalSecs
	}
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = defaults.MemoryThreshold
	}
	if cfg.GoroutineWarning == 0 {
		cfg.GoroutineWarning = defaults.GoroutineWarning
	}
	if cfg.SystemMemThreshold == 0 {
		cfg.SystemMemThreshold = defaults.SystemMemThreshold
	}

	return &ResourceLimiter{
		config:           cfg,
		logger:           logger.With().Str("module", "ResourceLimiter").Logger(),
		checkInterval:    time.Duration(cfg.CheckIntervalSecs) * time.Second,
		memoryWarningMB:  int64(float64(cfg.MaxMemoryMB) * cfg.MemoryThreshold),
		goroutineWarning: int(float64(cfg.MaxGoroutines) * cfg.GoroutineWarning),
		sample:           GetResourceUsage,
	}
}

// SetShutdownCallback sets the function called when a limit is exceeded.
func (rl *ResourceLimiter) SetShutdownCallback(callback func(reason string)) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.shutdownCallback = callback
}

// Start begins periodic checks. Calling Start twice is a no-op.
func (rl *ResourceLimiter) Start() {
	rl.mu.Lock()
	if rl.running {
		rl.mu.Unlock()
		return
	}
	rl.running = true
	rl.stop = make(chan struct{})
	stop := rl.stop
	rl.mu.Unlock()

	rl.wg.Add(1)
	go rl.monitor(stop)

	rl.logger.Debug().
		Int64("max_memory_mb", rl.config.MaxMemoryMB).
		Int("max_goroutines", rl.config.MaxGoroutines).
		Dur("check_interval", rl.checkInterval).
		Float64("system_mem_threshold", rl.config.SystemMemThreshold).
		Bool("auto_shutdown", rl.config.EnableAutoShutdown).
		Msg("Resource limiter started")
}

// Stop ends the checks and waits for the monitor to exit.
func (rl *ResourceLimiter) Stop() {
	rl.mu.Lock()
	if !rl.running {
		rl.mu.Unlock()
		return
	}
	rl.running = false
	close(rl.stop)
	rl.mu.Unlock()

	rl.wg.Wait()
	rl.logger.Debug().Msg("Resource limiter stopped")
}

// IsRunning reports whether the monitor is active.
func (rl *ResourceLimiter) IsRunning() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.running
}

func (rl *ResourceLimiter) monitor(stop <-chan struct{}) {
	defer rl.wg.Done()

	ticker := time.NewTicker(rl.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Check()
		}
	}
}

// Check samples usage once, logs warnings and triggers the shutdown callback
// when a limit is exceeded. It returns the exceeded reason, if any.
func (rl *ResourceLimiter) Check() string {
	usage := rl.sample()
	rl.logWarnings(usage)

	reason := rl.exceededLimit(usage)
	if reason == "" {
		rl.logger.Debug().
			Int64("alloc_mb", usage.AllocMB).
			Int("goroutines", usage.Goroutines).
			Float64("system_mem_percent", usage.SystemMemUsedPercent).
			Msg("Current resource usage")
		return ""
	}

	if !rl.config.EnableAutoShutdown {
		rl.logger.Warn().Str("reason", reason).Msg("Resource limit exceeded, auto shutdown disabled")
		return reason
	}

	rl.logger.Error().
		Str("reason", reason).
		Int64("alloc_mb", usage.AllocMB).
		Int("goroutines", usage.Goroutines).
		Float64("system_mem_percent", usage.SystemMemUsedPercent).
		Msg("Resource limits exceeded, stopping crawl")
	rl.triggerShutdown(reason)
	return reason
}

func (rl *ResourceLimiter) logWarnings(usage ResourceUsage) {
	if usage.AllocMB > rl.memoryWarningMB {
		rl.logger.Warn().
			Int64("current_mb", usage.AllocMB).
			Int64("threshold_mb", rl.memoryWarningMB).
			Int64("limit_mb", rl.config.MaxMemoryMB).
			Msg("Memory usage approaching limit")
		rl.ForceGC()
	}
	if usage.Goroutines > rl.goroutineWarning {
		rl.logger.Warn().
			Int("current", usage.Goroutines).
			Int("warning_threshold", rl.goroutineWarning).
			Int("limit", rl.config.MaxGoroutines).
			Msg("Goroutine count approaching limit")
	}
}

func (rl *ResourceLimiter) exceededLimit(usage ResourceUsage) string {
	switch {
	case usage.SystemMemUsedPercent/100.0 > rl.config.SystemMemThreshold:
		return fmt.Sprintf("system memory %.1f%% above %.1f%%", usage.SystemMemUsedPercent, rl.config.SystemMemThreshold*100)
	case usage.AllocMB > rl.config.MaxMemoryMB:
		return fmt.Sprintf("memory %dMB above limit %dMB", usage.AllocMB, rl.config.MaxMemoryMB)
	case usage.Goroutines > rl.config.MaxGoroutines:
		return fmt.Sprintf("goroutines %d above limit %d", usage.Goroutines, rl.config.MaxGoroutines)
	default:
		return ""
	}
}

// ForceGC runs a collection and logs how much was freed.
func (rl *ResourceLimiter) ForceGC() {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	runtime.GC()
	runtime.ReadMemStats(&after)

	rl.logger.Debug().
		Uint64("before_mb", before.Alloc/1024/1024).
		Uint64("after_mb", after.Alloc/1024/1024).
		Msg("Forced garbage collection completed")
}

func (rl *ResourceLimiter) triggerShutdown(reason string) {
	rl.shutdownOnce.Do(func() {
		rl.mu.Lock()
		callback := rl.shutdownCallback
		rl.mu.Unlock()

		if callback == nil {
			rl.logger.Warn().Msg("No shutdown callback set, cannot stop crawl")
			return
		}
		callback(reason)
	})
}
