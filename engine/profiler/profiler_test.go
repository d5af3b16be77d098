package profiler

import (
	"testing"
	"time"
)

func TestProfiler_Stages(t *testing.T) {
	p := NewProfiler(false)
	time.Sleep(2 * time.Millisecond)
	p.Mark("parse")
	p.Mark("build")

	stages := p.Stages()
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(stages))
	}
	if stages[0].Name != "parse" || stages[1].Name != "build" {
		t.Errorf("expected parse then build, got %q then %q", stages[0].Name, stages[1].Name)
	}
	if stages[0].Elapsed < 2*time.Millisecond {
		t.Errorf("expected parse to take at least 2ms, got %v", stages[0].Elapsed)
	}
	if p.Total() < stages[0].Elapsed+stages[1].Elapsed {
		t.Errorf("expected total %v to cover every stage", p.Total())
	}
	if got := len(p.Fields()); got != 2 {
		t.Errorf("expected one field per stage without memory tracking, got %d", got)
	}
}

var sink []byte

func TestProfiler_TrackMem(t *testing.T) {
	p := NewProfiler(true)
	sink = make([]byte, 1<<20)
	p.Mark("alloc")

	s := p.Stages()[0]
	if s.AllocBytes < 1<<20 {
		t.Errorf("expected at least 1MiB allocated, got %d", s.AllocBytes)
	}
	fields := p.Fields()
	if len(fields) != 2 || fields[1].Key != "alloc_alloc" {
		t.Errorf("expected a duration and an alloc field, got %v", fields)
	}
}
