package linden

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type tweenTarget uint8

const (
	tweenPlacement tweenTarget = iota
	tweenScale
)

// TweenUpdater animates the placement position or the scale of an
// instance along three eased channels. Attach it with AddUpdater; it
// detaches itself when finished or when its instance is removed.
type TweenUpdater struct {
	tweens [3]*gween.Tween
	target tweenTarget
	Done   bool
}

// TweenPosition moves the placement translation from one point to another
// over duration seconds.
func TweenPosition(from, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenUpdater {
	return newTween(tweenPlacement, from, to, duration, fn)
}

// TweenScale animates the scale node from one per-axis scale to another
// over duration seconds.
func TweenScale(from, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenUpdater {
	return newTween(tweenScale, from, to, duration, fn)
}

func newTween(target tweenTarget, from, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenUpdater {
	t := &TweenUpdater{target: target}
	for i := range t.tweens {
		t.tweens[i] = gween.New(from[i], to[i], duration, fn)
	}
	return t
}

// Update advances the tween by dt and writes the result to the instance.
func (t *TweenUpdater) Update(s *Scene, h int, dt float32) {
	if t.Done {
		s.RemoveUpdater(h, t)
		return
	}
	var v mgl32.Vec3
	allDone := true
	for i, tw := range t.tweens {
		val, finished := tw.Update(dt)
		v[i] = val
		if !finished {
			allDone = false
		}
	}

	var err error
	switch t.target {
	case tweenPlacement:
		var m mgl32.Mat4
		if m, err = s.LocalTransform(h); err == nil {
			m.SetCol(3, mgl32.Vec4{v[0], v[1], v[2], 1})
			err = s.SetLocalTransform(h, m)
		}
	case tweenScale:
		err = s.SetScaleTransform(h, mgl32.Scale3D(v[0], v[1], v[2]))
	}

	t.Done = allDone || err != nil
	if t.Done {
		s.RemoveUpdater(h, t)
	}
}
