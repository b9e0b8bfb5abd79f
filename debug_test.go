package linden

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestStatsAccumulate(t *testing.T) {
	s, _, _ := newTestScene(t)
	mustHandle(t)(s.AddGeom(newFakeGeom(3)))
	s.RenderForward()
	s.RenderForward()

	st := s.Stats()
	if st.Frames != 2 {
		t.Errorf("Frames = %d, want 2", st.Frames)
	}
	if st.DrawCalls != 3 {
		t.Errorf("DrawCalls = %d, want last frame's 3", st.DrawCalls)
	}

	s.ResetStats()
	if s.Stats() != (Stats{}) {
		t.Errorf("Stats after reset = %+v", s.Stats())
	}
}

func TestDebugCheckPassesOnValidLayout(t *testing.T) {
	s, _, _ := newTestScene(t)
	s.SetDebugMode(true)
	a := mustHandle(t)(s.AddGeom(newFakeGeom(2)))
	b := mustHandle(t)(s.AddGeom(newFakeGeom(1)))
	if err := s.Attach(a, b); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveItem(b); err != nil {
		t.Fatal(err)
	}
	s.RenderForward()
}

func TestDebugCheckPanicsOnCorruptLayout(t *testing.T) {
	s, _, _ := newTestScene(t)
	s.SetDebugMode(true)
	mustHandle(t)(s.AddGeom(newFakeGeom(2)))
	s.instances.Ptr(0).NumRigids = 3

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "blocks cover 3 of 4 rigids") {
			t.Errorf("panic = %v", r)
		}
	}()
	s.debugCheckInstances("test")
}

func TestDebugCheckOffWithoutDebugMode(t *testing.T) {
	s, _, _ := newTestScene(t)
	mustHandle(t)(s.AddGeom(newFakeGeom(1)))
	s.instances.Ptr(0).Start = 7
	s.debugCheckInstances("test")
}

// --- Logging ---

func TestSetLoggerReceivesSceneEvents(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	s, _, _ := newTestScene(t)
	h := mustHandle(t)(s.AddGeom(newFakeGeom(2)))
	s.SetVisible(h, false)
	s.SetVisible(h, true)
	s.SortScene()

	out := buf.String()
	for _, msg := range []string{"render operations rebuilt", "scene sorted", "operations=2"} {
		if !strings.Contains(out, msg) {
			t.Errorf("log output missing %q:\n%s", msg, out)
		}
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger should be disabled at every level")
	}
}
