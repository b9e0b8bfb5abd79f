package linden

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// StereoMode selects how the two eye images are combined.
type StereoMode uint8

const (
	StereoNone StereoMode = iota
	StereoGray
	StereoTrue
	StereoHalfColor
	StereoFullColor
	StereoOptimized
	StereoDubois
	StereoSideBySide
	stereoModeCount
)

var stereoModeNames = [stereoModeCount]string{
	"none", "gray", "true", "half-color", "full-color", "optimized", "dubois", "side-by-side",
}

func (m StereoMode) String() string {
	if m >= stereoModeCount {
		return "unknown"
	}
	return stereoModeNames[m]
}

// Shaders used to mix the eye images.
const (
	AnaglyphShader   = "Shaders/stereo_anaglyph.shader"
	SideBySideShader = "Shaders/stereo_side_by_side.shader"
)

// anaglyphRows holds, per mode, three RGB rows for the left eye and three
// for the right. Output channel i is dot(left row i, left color) +
// dot(right row i, right color).
var anaglyphRows = [stereoModeCount][2][3]mgl32.Vec3{
	StereoGray: {
		{{0.3, 0.59, 0.11}, {}, {}},
		{{}, {0.3, 0.59, 0.11}, {0.3, 0.59, 0.11}},
	},
	StereoTrue: {
		{{0.299, 0.587, 0.114}, {}, {}},
		{{}, {}, {0.299, 0.587, 0.114}},
	},
	StereoHalfColor: {
		{{0.299, 0.587, 0.114}, {}, {}},
		{{}, {0, 1, 0}, {0, 0, 1}},
	},
	StereoFullColor: {
		{{1, 0, 0}, {}, {}},
		{{}, {0, 1, 0}, {0, 0, 1}},
	},
	StereoOptimized: {
		{{0, 0.7, 0.3}, {}, {}},
		{{}, {0, 1, 0}, {0, 0, 1}},
	},
	StereoDubois: {
		{{0.4561, 0.500484, 0.176381}, {-0.0400822, -0.0378246, -0.0157589}, {-0.0152161, -0.0205971, -0.00546856}},
		{{-0.0434706, -0.0879388, -0.00155529}, {0.378476, 0.73364, -0.0184503}, {-0.0721527, -0.112961, 1.2264}},
	},
}

// AnaglyphCoefficients returns the left and right mixing matrices of
// mode. Row i of each matrix produces output channel i.
func AnaglyphCoefficients(mode StereoMode) (left, right mgl32.Mat4) {
	if mode >= stereoModeCount {
		return mgl32.Mat4{}, mgl32.Mat4{}
	}
	rows := anaglyphRows[mode]
	build := func(r [3]mgl32.Vec3) mgl32.Mat4 {
		return mgl32.Mat4FromRows(r[0].Vec4(0), r[1].Vec4(0), r[2].Vec4(0), mgl32.Vec4{})
	}
	return build(rows[0]), build(rows[1])
}

type stereoState struct {
	mode   StereoMode
	iod    float32
	focal  float32
	left   RenderTarget
	right  RenderTarget
	mixer  RenderState
	shader string
}

func newStereoState(cfg SceneConfig) stereoState {
	return stereoState{iod: cfg.InterocularDistance, focal: cfg.FocalLength}
}

func (st *stereoState) ready() bool {
	return st.left != nil && st.right != nil && st.mixer != nil
}

func (st *stereoState) dispose() {
	if st.left != nil {
		st.left.Dispose()
		st.left = nil
	}
	if st.right != nil {
		st.right.Dispose()
		st.right = nil
	}
}

// SetAnaglyphStereoRendering switches stereo rendering on or off. Eye
// buffers of the given size are created on first use and released when
// switching to StereoNone.
func (s *Scene) SetAnaglyphStereoRendering(mode StereoMode, width, height int) error {
	if mode >= stereoModeCount {
		return fmt.Errorf("stereo mode %d: %w", mode, ErrUnknownStereoMode)
	}
	st := &s.stereo
	if mode == StereoNone {
		st.dispose()
		st.mode = StereoNone
		return nil
	}

	shader := AnaglyphShader
	if mode == StereoSideBySide {
		shader = SideBySideShader
	}
	if st.mixer == nil || st.shader != shader {
		mixer, err := s.res.LoadShader(shader)
		if err != nil {
			return fmt.Errorf("stereo mode %d: %w", mode, err)
		}
		st.mixer, st.shader = mixer, shader
	}
	if st.left == nil || st.right == nil {
		desc := RenderTargetDesc{Width: width, Height: height, BitsPerChannel: []int{8}, HasDepth: true}
		st.left = s.rc.CreateRenderTarget(desc)
		st.right = s.rc.CreateRenderTarget(desc)
	}
	st.mode = mode
	return nil
}

// StereoMode returns the current stereo mode.
func (s *Scene) StereoMode() StereoMode { return s.stereo.mode }

// SetInterocularDistance sets the distance between the eyes in world
// units.
func (s *Scene) SetInterocularDistance(iod float32) { s.stereo.iod = iod }

// InterocularDistance returns the distance between the eyes.
func (s *Scene) InterocularDistance() float32 { return s.stereo.iod }

// SetFocalLength sets the distance of the zero-parallax plane.
func (s *Scene) SetFocalLength(f float32) { s.stereo.focal = f }

// FocalLength returns the distance of the zero-parallax plane.
func (s *Scene) FocalLength() float32 { return s.stereo.focal }

// PerspectiveParams recovers the vertical field of view (radians), aspect
// ratio and clip distances from a matrix built by mgl32.Perspective.
func PerspectiveParams(m mgl32.Mat4) (fovy, aspect, near, far float32) {
	f := m.At(1, 1)
	fovy = 2 * float32(math.Atan(float64(1/f)))
	aspect = f / m.At(0, 0)
	a, b := m.At(2, 2), m.At(2, 3)
	near = b / (a - 1)
	far = b / (a + 1)
	return fovy, aspect, near, far
}

// StereoProjection returns the asymmetric frustum of one eye for parallel
// axis stereo. The frustum is shifted so both eyes converge at focal.
func StereoProjection(fovy, aspect, near, far, iod, focal float32, left bool) mgl32.Mat4 {
	top := near * float32(math.Tan(float64(fovy/2)))
	right := aspect * top
	shift := iod / 2 * near / focal
	if !left {
		shift = -shift
	}
	return mgl32.Frustum(-right+shift, right+shift, -top, top, near, far)
}

// StereoView offsets a view matrix by half the interocular distance along
// the camera's X axis.
func StereoView(view mgl32.Mat4, iod float32, left bool) mgl32.Mat4 {
	d := iod / 2
	if !left {
		d = -d
	}
	return mgl32.Translate3D(d, 0, 0).Mul4(view)
}

// renderStereo draws the scene once per eye into the eye buffers, then
// mixes them into the output.
func (s *Scene) renderStereo() {
	st := &s.stereo
	saved := s.camera
	fovy, aspect, near, far := PerspectiveParams(saved.Projection)

	s.camera.Projection = StereoProjection(fovy, aspect, near, far, st.iod, st.focal, true)
	s.camera.View = StereoView(saved.View, st.iod, true)
	s.renderForwardInternal(st.left)

	s.camera.Projection = StereoProjection(fovy, aspect, near, far, st.iod, st.focal, false)
	s.camera.View = StereoView(saved.View, st.iod, false)
	s.renderForwardInternal(st.right)

	s.camera = saved

	st.mixer.SetTexture(0, st.left.ColorTexture(0), false)
	st.mixer.SetTexture(1, st.right.ColorTexture(0), false)
	if p := st.mixer.Program(); p != nil {
		l, r := AnaglyphCoefficients(st.mode)
		p.SetUniformMat4("LeftEyeCoefs", l)
		p.SetUniformMat4("RightEyeCoefs", r)
	}

	target := s.outputTarget()
	if target != nil {
		target.Bind()
	}
	if !s.cfg.DisableRendering {
		s.rc.FullscreenRect(st.mixer)
		s.frameStats.drawCalls++
	}
	if target != nil {
		target.Unbind()
	}
}
