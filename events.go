package linden

// SceneEventType identifies a kind of scene event.
type SceneEventType uint8

const (
	EventPreRender    SceneEventType = iota // target bound and cleared, before the normal pass
	EventPostRender                         // after the frame was drawn and the target unbound
	EventGeomReloaded                       // an instance was re-added after its geom changed
)

// SceneEvent is delivered to the scene's EventSink.
type SceneEvent struct {
	Type   SceneEventType
	Handle int // instance handle for EventGeomReloaded, otherwise -1
}

// EventSink receives scene events. The ecs sub-package provides an
// implementation that publishes them to a donburi world.
type EventSink interface {
	EmitEvent(event SceneEvent)
}

func (s *Scene) emit(e SceneEvent) {
	if s.events != nil {
		s.events.EmitEvent(e)
	}
}
