package linden

// Updater is attached to a geometry instance and called once per
// Scene.Update while the scene is running.
type Updater interface {
	Update(s *Scene, h int, dt float32)
}

// PauseUpdater is implemented by updaters that keep running while the
// scene is paused.
type PauseUpdater interface {
	UpdateInPause(s *Scene, h int, dt float32)
}

type updaterEntry struct {
	handle int
	u      Updater
}

// AddUpdater attaches u to instance h. Adding the same updater to the same
// instance twice has no effect.
func (s *Scene) AddUpdater(h int, u Updater) error {
	if u == nil {
		return nil
	}
	if _, err := s.instance("add updater", h); err != nil {
		return err
	}
	for _, e := range s.updaters {
		if e.handle == h && e.u == u {
			return nil
		}
	}
	s.updaters = append(s.updaters, updaterEntry{handle: h, u: u})
	return nil
}

// RemoveUpdater detaches u from instance h. A nil u detaches every updater
// of h.
func (s *Scene) RemoveUpdater(h int, u Updater) {
	kept := s.updaters[:0]
	for _, e := range s.updaters {
		if e.handle == h && (u == nil || e.u == u) {
			continue
		}
		kept = append(kept, e)
	}
	clear(s.updaters[len(kept):])
	s.updaters = kept
}

// UpdatersCount returns the number of updaters attached to h.
func (s *Scene) UpdatersCount(h int) int {
	n := 0
	for _, e := range s.updaters {
		if e.handle == h {
			n++
		}
	}
	return n
}

func (s *Scene) hasUpdater(h int, match func(Updater) bool) bool {
	for _, e := range s.updaters {
		if e.handle == h && match(e.u) {
			return true
		}
	}
	return false
}

func (s *Scene) updatersOf(h int) []updaterEntry {
	var out []updaterEntry
	for _, e := range s.updaters {
		if e.handle == h {
			out = append(out, e)
		}
	}
	return out
}

// SetPaused pauses or resumes the scene. While paused only PauseUpdaters
// run.
func (s *Scene) SetPaused(paused bool) { s.paused = paused }

// Paused reports whether the scene is paused.
func (s *Scene) Paused() bool { return s.paused }

// Update advances every attached updater by dt seconds. Updaters may add
// or remove updaters while running; changes take effect next call.
func (s *Scene) Update(dt float32) {
	s.updateBuf = append(s.updateBuf[:0], s.updaters...)
	for _, e := range s.updateBuf {
		if s.paused {
			if pu, ok := e.u.(PauseUpdater); ok {
				pu.UpdateInPause(s, e.handle, dt)
			}
			continue
		}
		e.u.Update(s, e.handle, dt)
	}
}

// AnimationUpdater plays the keyframe animation of its instance.
// SetAnimation installs one automatically.
type AnimationUpdater struct {
	// OnWrap, if set, is called each time the sequence passes its end.
	OnWrap func(h int)
}

// Update advances the instance's animation by dt.
func (a *AnimationUpdater) Update(s *Scene, h int, dt float32) {
	wrapped, err := s.UpdateAnimation(h, dt)
	if err != nil {
		s.RemoveUpdater(h, a)
		return
	}
	if wrapped && a.OnWrap != nil {
		a.OnWrap(h)
	}
}
