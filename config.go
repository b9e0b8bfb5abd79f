package linden

import (
	"encoding/json"
	"fmt"
)

// SceneConfig holds the switches a scene starts with. Most of them can be
// changed later through the matching Scene setters.
type SceneConfig struct {
	ClearColor   bool `json:"clearColor"`
	ClearDepth   bool `json:"clearDepth"`
	ClearStencil bool `json:"clearStencil"`

	// DepthBasedShadows compiles a dedicated shadow state per material and
	// gives shadow maps a depth attachment. When false the shadow pass
	// reuses the normal state.
	DepthBasedShadows bool `json:"depthBasedShadows"`
	FrustumCulling    bool `json:"frustumCulling"`

	EnableShadowPass     bool `json:"enableShadowPass"`
	EnableReflectionPass bool `json:"enableReflectionPass"`
	DisableRendering     bool `json:"disableRendering"`

	// Debug overlays, drawn when the render context implements DebugCanvas.
	RenderBoxes       bool `json:"renderBoxes"`
	RenderLights      bool `json:"renderLights"`
	RenderReflections bool `json:"renderReflections"`
	RenderShadowMaps  bool `json:"renderShadowMaps"`
	ShowNormals       bool `json:"showNormals"`

	InterocularDistance float32 `json:"interocularDistance"`
	FocalLength         float32 `json:"focalLength"`

	ShadowMapSize     int `json:"shadowMapSize"`
	ReflectionMapSize int `json:"reflectionMapSize"`

	LightFOV  float32 `json:"lightFov"` // degrees
	LightNear float32 `json:"lightNear"`
	LightFar  float32 `json:"lightFar"`

	// Debug enables structural checks and per-frame stats logging.
	Debug bool `json:"debug"`
}

// DefaultSceneConfig returns the configuration NewScene uses when given the
// zero SceneConfig.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		ClearColor:           true,
		ClearDepth:           true,
		ClearStencil:         true,
		DepthBasedShadows:    true,
		EnableShadowPass:     true,
		EnableReflectionPass: true,
		InterocularDistance:  0.05,
		FocalLength:          10,
		ShadowMapSize:        512,
		ReflectionMapSize:    1024,
		LightFOV:             80,
		LightNear:            0.4,
		LightFar:             1000,
	}
}

// LoadSceneConfig parses a JSON object over DefaultSceneConfig. Fields
// missing from the document keep their defaults.
func LoadSceneConfig(jsonData []byte) (SceneConfig, error) {
	cfg := DefaultSceneConfig()
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return SceneConfig{}, fmt.Errorf("parse scene config: %w", err)
	}
	if cfg.ShadowMapSize <= 0 || cfg.ReflectionMapSize <= 0 {
		return SceneConfig{}, fmt.Errorf("parse scene config: buffer sizes must be positive")
	}
	return cfg, nil
}

func (c SceneConfig) isZero() bool {
	return c == SceneConfig{}
}
