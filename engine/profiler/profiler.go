package profiler

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stage is the recorded duration of one named pipeline step.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Profiler records pipeline stage timings and memory statistics for performance monitoring.
// Stats are written to the configured logger by Report.
type Profiler struct {
	mu             sync.Mutex
	logger         *zap.Logger
	stages         []Stage
	created        time.Time
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	now            func() time.Time
}

// NewProfiler creates a new Profiler. A nil logger discards reports.
//
// Parameters:
//   - logger: the logger that receives reports
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Profiler{
		logger: logger,
		now:    time.Now,
	}
	p.created = p.now()
	runtime.ReadMemStats(&p.memStats)
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return p
}

// Start begins timing a stage. The returned function ends it; calling it more than once records once.
// A nil Profiler returns a no-op so callers need not check.
//
// Parameters:
//   - name: the stage name
//
// Returns:
//   - func(): stops the timer and records the stage
func (p *Profiler) Start(name string) func() {
	if p == nil {
		return func() {}
	}
	begin := p.now()
	var once sync.Once
	return func() {
		once.Do(func() {
			p.Record(name, p.now().Sub(begin))
		})
	}
}

// Record appends a stage with an explicit duration.
//
// Parameters:
//   - name: the stage name
//   - d: the measured duration
func (p *Profiler) Record(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.stages = append(p.stages, Stage{Name: name, Duration: d})
	p.mu.Unlock()
	p.logger.Debug("stage complete", zap.String("stage", name), zap.Duration("duration", d))
}

// Stages returns a copy of the recorded stages in completion order.
//
// Returns:
//   - []Stage: the recorded stages
func (p *Profiler) Stages() []Stage {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Total returns the sum of all recorded stage durations.
func (p *Profiler) Total() time.Duration {
	var total time.Duration
	for _, s := range p.Stages() {
		total += s.Duration
	}
	return total
}

// Report logs every stage together with heap usage and allocation churn since the profiler was created.
func (p *Profiler) Report() {
	if p == nil {
		return
	}
	stages := p.Stages()
	fields := make([]zap.Field, 0, len(stages)+5)
	for _, s := range stages {
		fields = append(fields, zap.Duration(s.Name, s.Duration))
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc grows forever, so the delta is allocation churn.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	churnMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	fields = append(fields,
		zap.Duration("wall", p.now().Sub(p.created)),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("allocated_mb", churnMB),
		zap.Uint32("gc", p.memStats.NumGC),
		zap.Float64("sys_mb", sysMB),
	)
	p.logger.Info("profile", fields...)
}
