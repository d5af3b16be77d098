package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Stage is the cost of one named step of a profiled operation.
type Stage struct {
	Name    string
	Elapsed time.Duration

	// AllocBytes is the heap allocated during the stage. Zero unless memory tracking is on.
	AllocBytes uint64
}

// Profiler splits a single operation into consecutive stages and records the wall time and,
// optionally, the heap allocation of each. It is not safe for concurrent use.
type Profiler struct {
	start     time.Time
	lastTime  time.Time
	trackMem  bool
	memStats  runtime.MemStats
	lastAlloc uint64
	stages    []Stage
}

// NewProfiler creates a Profiler whose first stage starts now.
// Memory tracking reads runtime.MemStats at every mark, which stops the world, so enable it
// only when the result will be looked at.
//
// Parameters:
//   - trackMem: whether to record heap allocation per stage
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(trackMem bool) *Profiler {
	now := time.Now()
	p := &Profiler{
		start:    now,
		lastTime: now,
		trackMem: trackMem,
	}
	if trackMem {
		runtime.ReadMemStats(&p.memStats)
		p.lastAlloc = p.memStats.TotalAlloc
	}
	return p
}

// Mark ends the current stage under name and starts the next one.
//
// Parameters:
//   - name: the name of the stage that just finished
func (p *Profiler) Mark(name string) {
	now := time.Now()
	s := Stage{Name: name, Elapsed: now.Sub(p.lastTime)}
	if p.trackMem {
		runtime.ReadMemStats(&p.memStats)
		s.AllocBytes = p.memStats.TotalAlloc - p.lastAlloc
		p.lastAlloc = p.memStats.TotalAlloc
	}
	p.stages = append(p.stages, s)
	p.lastTime = now
}

// Stages returns the finished stages in the order they were marked.
func (p *Profiler) Stages() []Stage {
	return p.stages
}

// Total returns the time since the profiler was created.
func (p *Profiler) Total() time.Duration {
	return time.Since(p.start)
}

// Fields renders the stages as log fields: one duration per stage, plus "<stage>_alloc"
// byte counts when memory tracking is on.
//
// Returns:
//   - []zap.Field: the fields, in stage order
func (p *Profiler) Fields() []zap.Field {
	fields := make([]zap.Field, 0, len(p.stages)*2)
	for _, s := range p.stages {
		fields = append(fields, zap.Duration(s.Name, s.Elapsed))
		if p.trackMem {
			fields = append(fields, zap.Uint64(s.Name+"_alloc", s.AllocBytes))
		}
	}
	return fields
}
