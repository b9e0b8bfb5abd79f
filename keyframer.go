package linden

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Keyframer tracks the animation position of one rigid: the current and
// next frame, the blend factor between them and the playback range.
type Keyframer struct {
	Frame      int
	NextFrame  int
	Lerp       float32
	Iterations int

	First      int
	Last       int // one past the final frame
	LoopFrames int // frames replayed when the end is reached
	FPS        float32
}

// NewKeyframer returns a keyframer positioned at first that plays
// [first, last) and loops the final loopFrames frames.
func NewKeyframer(first, last, loopFrames int, fps float32) Keyframer {
	return Keyframer{
		Frame:      first,
		NextFrame:  first,
		First:      first,
		Last:       last,
		LoopFrames: loopFrames,
		FPS:        fps,
	}
}

// Update advances playback by dt seconds. It reports whether the end of
// the range was passed.
func (k *Keyframer) Update(dt float32) bool {
	pos := float64(k.Frame) + float64(k.Lerp) + float64(k.FPS*dt)
	whole, frac := math.Modf(pos)
	frame := int(whole)
	k.Lerp = float32(frac)

	wrapped := false
	if frame >= k.Last {
		frame = k.Last - k.LoopFrames
		wrapped = true
		k.Iterations++
	}
	next := frame + 1
	if next >= k.Last {
		next = k.Last - k.LoopFrames
	}
	k.Frame, k.NextFrame = k.clamp(frame), k.clamp(next)
	return wrapped
}

// AdvanceFrames steps n whole frames and resets the blend factor. It
// reports whether the end of the range was passed.
func (k *Keyframer) AdvanceFrames(n int) bool {
	frame := k.Frame + n
	next := frame + 1

	wrapped := false
	if frame > k.Last {
		frame = k.Last - k.LoopFrames
		wrapped = true
		k.Iterations++
	}
	if next > k.Last {
		next = k.Last - k.LoopFrames
	}
	k.Frame, k.NextFrame = k.clamp(frame), k.clamp(next)
	k.Lerp = 0
	return wrapped
}

func (k *Keyframer) clamp(f int) int {
	if f < 0 {
		return k.First
	}
	return f
}

// SetKeyframe jumps to an explicit position and resets the iteration
// count.
func (k *Keyframer) SetKeyframe(frame, next int, lerp float32) {
	k.Frame, k.NextFrame, k.Lerp, k.Iterations = frame, next, lerp, 0
}

// Vec packs the position as (frame, next, lerp, iterations), the layout
// the shaders expect.
func (k *Keyframer) Vec() mgl32.Vec4 {
	return mgl32.Vec4{float32(k.Frame), float32(k.NextFrame), k.Lerp, float32(k.Iterations)}
}

// SetAnimation starts the named sequence of h's mesh on every rigid of h
// and installs an AnimationUpdater unless one is already present.
func (s *Scene) SetAnimation(h int, name string) error {
	inst, err := s.instance("set animation", h)
	if err != nil {
		return err
	}
	mesh := s.geoms[inst.Geom].CurrentMesh()
	if mesh == nil {
		return &HandleError{Op: "set animation", Handle: h, Err: ErrUnknownAnimation}
	}
	seq, ok := mesh.AnimSequence(name)
	if !ok {
		return &HandleError{Op: "set animation", Handle: h, Err: fmt.Errorf("%w %q", ErrUnknownAnimation, name)}
	}
	kf := NewKeyframer(seq.FirstFrame, seq.FirstFrame+seq.Frames, seq.LoopingFrames, seq.FPS)
	rigids := s.rigids.Slice()[inst.Start : inst.Start+inst.NumRigids]
	for i := range rigids {
		rigids[i].Keyframer = kf
	}
	if !s.hasUpdater(h, func(u Updater) bool { _, ok := u.(*AnimationUpdater); return ok }) {
		s.AddUpdater(h, &AnimationUpdater{})
	}
	return nil
}

// BlendAnimation switches h to the named sequence. Blending between
// sequences is not supported, so this behaves like SetAnimation.
func (s *Scene) BlendAnimation(h int, name string) error {
	return s.SetAnimation(h, name)
}

// SetAnimationSpeed sets the playback rate of every rigid of h.
func (s *Scene) SetAnimationSpeed(h int, fps float32) error {
	return s.forEachRigid("set animation speed", h, func(r *RigidInstance) { r.Keyframer.FPS = fps })
}

// UpdateAnimation advances every rigid of h by dt seconds and reports
// whether any of them passed the end of its sequence.
func (s *Scene) UpdateAnimation(h int, dt float32) (bool, error) {
	wrapped := false
	err := s.forEachRigid("update animation", h, func(r *RigidInstance) {
		if r.Keyframer.Update(dt) {
			wrapped = true
		}
	})
	return wrapped, err
}

// SetKeyframe jumps every rigid of h to an explicit position.
func (s *Scene) SetKeyframe(h int, frame, next int, lerp float32) error {
	return s.forEachRigid("set keyframe", h, func(r *RigidInstance) { r.Keyframer.SetKeyframe(frame, next, lerp) })
}

// Keyframe returns the animation position of h's placement root.
func (s *Scene) Keyframe(h int) (Keyframer, error) {
	inst, err := s.instance("keyframe", h)
	if err != nil {
		return Keyframer{}, err
	}
	return s.rigids.At(inst.Start).Keyframer, nil
}
