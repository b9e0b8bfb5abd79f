package linden

import "testing"

func TestDefaultSceneConfig(t *testing.T) {
	cfg := DefaultSceneConfig()
	if !cfg.ClearColor || !cfg.ClearDepth || !cfg.ClearStencil {
		t.Error("default config should clear every buffer")
	}
	if !cfg.EnableShadowPass || !cfg.EnableReflectionPass || !cfg.DepthBasedShadows {
		t.Errorf("passes = %+v, want shadows and reflections enabled", cfg)
	}
	if cfg.FrustumCulling {
		t.Error("frustum culling should be off by default")
	}
	if cfg.ShadowMapSize != 512 || cfg.ReflectionMapSize != 1024 {
		t.Errorf("sizes = %d/%d, want 512/1024", cfg.ShadowMapSize, cfg.ReflectionMapSize)
	}
	if cfg.LightFOV != 80 || cfg.LightNear != 0.4 || cfg.LightFar != 1000 {
		t.Errorf("light projection = %v/%v/%v", cfg.LightFOV, cfg.LightNear, cfg.LightFar)
	}
}

func TestLoadSceneConfigKeepsDefaults(t *testing.T) {
	cfg, err := LoadSceneConfig([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultSceneConfig() {
		t.Errorf("empty document = %+v, want defaults", cfg)
	}
}

func TestLoadSceneConfigOverrides(t *testing.T) {
	cfg, err := LoadSceneConfig([]byte(`{
		"frustumCulling": true,
		"enableReflectionPass": false,
		"shadowMapSize": 2048,
		"interocularDistance": 0.065,
		"renderBoxes": true
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.FrustumCulling || cfg.EnableReflectionPass || !cfg.RenderBoxes {
		t.Errorf("switches = %+v", cfg)
	}
	if cfg.ShadowMapSize != 2048 {
		t.Errorf("ShadowMapSize = %d, want 2048", cfg.ShadowMapSize)
	}
	if cfg.InterocularDistance != 0.065 {
		t.Errorf("InterocularDistance = %v, want 0.065", cfg.InterocularDistance)
	}
	if cfg.ReflectionMapSize != 1024 || !cfg.EnableShadowPass {
		t.Error("fields missing from the document should keep their defaults")
	}
}

func TestLoadSceneConfigErrors(t *testing.T) {
	for _, doc := range []string{
		`{`,
		`{"shadowMapSize": "big"}`,
		`{"shadowMapSize": 0}`,
		`{"reflectionMapSize": -4}`,
	} {
		if _, err := LoadSceneConfig([]byte(doc)); err == nil {
			t.Errorf("LoadSceneConfig(%s) succeeded, want error", doc)
		}
	}
}

func TestSceneConfigSetters(t *testing.T) {
	s, _, _ := newTestScene(t)
	s.SetClearFlags(false, true, false)
	if c, d, st := s.ClearFlags(); c || !d || st {
		t.Errorf("ClearFlags = %v %v %v, want false true false", c, d, st)
	}
	s.SetFrustumCulling(true)
	s.SetDepthBasedShadows(false)
	if !s.FrustumCulling() || s.DepthBasedShadows() {
		t.Error("setters should update the config")
	}
	if !s.Config().FrustumCulling {
		t.Error("Config should reflect the setters")
	}
}
