package ecs

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/linden"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// SceneEventType is the Donburi event type for linden scene events.
// Subscribe to this in your ECS systems to receive frame and reload events.
var SceneEventType = events.NewEventType[linden.SceneEvent]()

// Instance links an entity to a geometry instance of a scene. Placement is
// written to the instance's local transform by SyncPlacements.
type Instance struct {
	Handle    int
	Placement mgl32.Mat4
}

// InstanceComponent is the Donburi component holding an Instance.
var InstanceComponent = donburi.NewComponentType[Instance]()

var instanceQuery = donburi.NewQuery(filter.Contains(InstanceComponent))

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Scene events are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) linden.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event linden.SceneEvent) {
	SceneEventType.Publish(s.world, event)
}

// SyncPlacements copies the Placement of every entity with an
// InstanceComponent into scene. It keeps going past invalid handles and
// returns the first error.
func SyncPlacements(world donburi.World, scene *linden.Scene) error {
	var first error
	instanceQuery.Each(world, func(entry *donburi.Entry) {
		in := InstanceComponent.Get(entry)
		if err := scene.SetLocalTransform(in.Handle, in.Placement); err != nil && first == nil {
			first = err
		}
	})
	return first
}
