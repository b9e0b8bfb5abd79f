package linden

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// orbitAnim holds active orbit-to tweens for yaw, pitch and distance.
type orbitAnim struct {
	tweens [3]*gween.Tween
	done   [3]bool
}

// Camera orbits a target point. Apply writes its view and projection to a
// scene.
type Camera struct {
	// Target is the world-space point the camera looks at.
	Target mgl32.Vec3
	// Yaw and Pitch are the orbit angles in radians. Pitch is clamped to
	// just under ±90°.
	Yaw, Pitch float32
	// Distance from Target to the eye.
	Distance float32

	FOV       float32 // vertical field of view in radians
	Near, Far float32

	// MinDistance and MaxDistance clamp Distance when MaxDistance > 0.
	MinDistance, MaxDistance float32

	followScene  *Scene
	followHandle int
	followOffset mgl32.Vec3
	followLerp   float32

	orbit *orbitAnim
}

// NewCamera returns a camera 10 units from the origin with a 45° field of
// view.
func NewCamera() *Camera {
	return &Camera{
		Distance:     10,
		FOV:          mgl32.DegToRad(45),
		Near:         0.1,
		Far:          1000,
		followHandle: InvalidHandle,
	}
}

// Follow makes the camera track the global origin of instance h with the
// given offset and lerp factor. A lerp of 1 snaps immediately.
func (c *Camera) Follow(s *Scene, h int, offset mgl32.Vec3, lerp float32) {
	c.followScene = s
	c.followHandle = h
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current instance.
func (c *Camera) Unfollow() {
	c.followScene = nil
	c.followHandle = InvalidHandle
}

// OrbitTo animates yaw, pitch and distance over duration seconds.
func (c *Camera) OrbitTo(yaw, pitch, distance, duration float32, easeFn ease.TweenFunc) {
	c.orbit = &orbitAnim{tweens: [3]*gween.Tween{
		gween.New(c.Yaw, yaw, duration, easeFn),
		gween.New(c.Pitch, pitch, duration, easeFn),
		gween.New(c.Distance, distance, duration, easeFn),
	}}
}

// Orbiting reports whether an OrbitTo animation is running.
func (c *Camera) Orbiting() bool { return c.orbit != nil }

// Update advances following and the orbit animation.
func (c *Camera) Update(dt float32) {
	if c.followScene != nil {
		if g, err := c.followScene.GlobalTransform(c.followHandle); err == nil {
			want := g.Col(3).Vec3().Add(c.followOffset)
			c.Target = c.Target.Add(want.Sub(c.Target).Mul(c.followLerp))
		} else {
			c.Unfollow()
		}
	}

	if o := c.orbit; o != nil {
		fields := [3]*float32{&c.Yaw, &c.Pitch, &c.Distance}
		for i, tw := range o.tweens {
			if o.done[i] {
				continue
			}
			*fields[i], o.done[i] = tw.Update(dt)
		}
		if o.done[0] && o.done[1] && o.done[2] {
			c.orbit = nil
		}
	}
}

// Eye returns the camera position.
func (c *Camera) Eye() mgl32.Vec3 {
	c.clamp()
	cp := float32(math.Cos(float64(c.Pitch)))
	dir := mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(dir.Mul(c.Distance))
}

func (c *Camera) clamp() {
	const limit = math.Pi/2 - 1e-3
	c.Pitch = mgl32.Clamp(c.Pitch, -limit, limit)
	if c.MaxDistance > 0 {
		c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
	}
}

// View returns the view matrix looking from Eye at Target.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns a perspective projection for the aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// Apply sets the scene camera, using the render context's aspect ratio.
func (c *Camera) Apply(s *Scene) {
	s.SetCameraProjection(c.Projection(s.rc.AspectRatio()))
	s.SetCameraTransform(c.View())
}
