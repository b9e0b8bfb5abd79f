package linden

import (
	"fmt"
	"log/slog"
	"time"
)

// Stats accumulates timing over the life of a scene.
type Stats struct {
	Frames        int
	RenderingTime time.Duration
	PickingTime   time.Duration
	// Last frame counters.
	DrawCalls int
	Culled    int
}

// Stats returns the accumulated statistics.
func (s *Scene) Stats() Stats { return s.stats }

// ResetStats zeroes the accumulated statistics.
func (s *Scene) ResetStats() { s.stats = Stats{} }

// debugStats holds per-frame metrics.
type debugStats struct {
	sortTime  time.Duration
	drawCalls int
	culled    int
}

func (s *Scene) finishFrame(start time.Time) {
	frame := time.Since(start)
	s.stats.Frames++
	s.stats.RenderingTime += frame
	s.stats.DrawCalls = s.frameStats.drawCalls
	s.stats.Culled = s.frameStats.culled
	s.debugLog(frame, s.frameStats)
	s.frameStats = debugStats{}
}

// debugLog logs per-frame stats when debug mode is on.
func (s *Scene) debugLog(frame time.Duration, stats debugStats) {
	if !s.cfg.Debug {
		return
	}
	Logger().Debug("frame",
		slog.Duration("total", frame),
		slog.Duration("sort", stats.sortTime),
		slog.Int("operations", s.renderOps.Len()),
		slog.Int("drawCalls", stats.drawCalls),
		slog.Int("culled", stats.culled),
	)
}

// debugCheckInstances panics when the blocks of the live instances do
// not exactly tile the rigid array, or when a parent reference leaves its
// block. A block root may only point at another block root (an
// attachment); every other rigid points backwards inside its own block.
// Only runs in debug mode.
func (s *Scene) debugCheckInstances(op string) {
	if !s.cfg.Debug {
		return
	}
	total := 0
	insts := s.instances.Slice()
	for h := range insts {
		inst := &insts[h]
		if inst.Free() {
			continue
		}
		total += inst.NumRigids
		if inst.Start < 0 || inst.Start+inst.NumRigids > s.rigids.Len() {
			panic(fmt.Sprintf("linden debug: %s: instance %d block [%d, %d) outside %d rigids",
				op, h, inst.Start, inst.Start+inst.NumRigids, s.rigids.Len()))
		}
		for i := inst.Start; i < inst.Start+inst.NumRigids; i++ {
			r := s.rigids.Ptr(i)
			if r.Instance != h {
				panic(fmt.Sprintf("linden debug: %s: rigid %d belongs to %d, inside block of %d", op, i, r.Instance, h))
			}
			s.debugCheckParent(op, i, inst.Start)
		}
	}
	if total != s.rigids.Len() {
		panic(fmt.Sprintf("linden debug: %s: blocks cover %d of %d rigids", op, total, s.rigids.Len()))
	}
}

func (s *Scene) debugCheckParent(op string, i, start int) {
	p := s.rigids.At(i).ParentRef
	if i == start {
		if p == -1 {
			return
		}
		if p < 0 || p >= s.rigids.Len() {
			panic(fmt.Sprintf("linden debug: %s: root rigid %d has parent %d outside %d rigids", op, i, p, s.rigids.Len()))
		}
		owner, err := s.instance(op, s.rigids.At(p).Instance)
		if err != nil || owner.Start != p {
			panic(fmt.Sprintf("linden debug: %s: root rigid %d is attached to %d, not a block root", op, i, p))
		}
		return
	}
	if p < start || p >= i {
		panic(fmt.Sprintf("linden debug: %s: rigid %d has parent %d, want one in [%d, %d)", op, i, p, start, i))
	}
}
