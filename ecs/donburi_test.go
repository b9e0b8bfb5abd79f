package ecs

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/linden"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func newTestScene(t *testing.T) (*linden.Scene, int) {
	t.Helper()
	scene := linden.NewScene(linden.NewEbitenContext(320, 240), linden.NewEbitenResources(), linden.SceneConfig{})
	geom := linden.NewStaticGeom(linden.NewModel(linden.NewCubeMesh(1), nil))
	h, err := scene.AddGeom(geom)
	if err != nil {
		t.Fatalf("AddGeom: %v", err)
	}
	return scene, h
}

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []linden.SceneEvent
	SceneEventType.Subscribe(world, func(w donburi.World, e linden.SceneEvent) {
		received = append(received, e)
	})

	sink.EmitEvent(linden.SceneEvent{Type: linden.EventPreRender, Handle: linden.InvalidHandle})
	sink.EmitEvent(linden.SceneEvent{Type: linden.EventGeomReloaded, Handle: 3})

	// Events are queued; process them.
	SceneEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != linden.EventPreRender || received[0].Handle != linden.InvalidHandle {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Type != linden.EventGeomReloaded || received[1].Handle != 3 {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	SceneEventType.Subscribe(world, func(w donburi.World, e linden.SceneEvent) {
		count1++
	})
	SceneEventType.Subscribe(world, func(w donburi.World, e linden.SceneEvent) {
		count2++
	})

	sink.EmitEvent(linden.SceneEvent{Type: linden.EventPostRender})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestSyncPlacements(t *testing.T) {
	scene, h := newTestScene(t)
	world := donburi.NewWorld()

	want := mgl32.Translate3D(1, 2, 3)
	e := world.Create(InstanceComponent)
	InstanceComponent.SetValue(world.Entry(e), Instance{Handle: h, Placement: want})

	if err := SyncPlacements(world, scene); err != nil {
		t.Fatalf("SyncPlacements: %v", err)
	}
	got, err := scene.LocalTransform(h)
	if err != nil {
		t.Fatalf("LocalTransform: %v", err)
	}
	if !got.ApproxEqual(want) {
		t.Errorf("LocalTransform = %v, want %v", got, want)
	}
}

func TestSyncPlacements_InvalidHandle(t *testing.T) {
	scene, h := newTestScene(t)
	world := donburi.NewWorld()

	bad := world.Create(InstanceComponent)
	InstanceComponent.SetValue(world.Entry(bad), Instance{Handle: 99, Placement: mgl32.Ident4()})
	good := world.Create(InstanceComponent)
	want := mgl32.Translate3D(0, 5, 0)
	InstanceComponent.SetValue(world.Entry(good), Instance{Handle: h, Placement: want})

	err := SyncPlacements(world, scene)
	if !errors.Is(err, linden.ErrInvalidHandle) {
		t.Fatalf("SyncPlacements error = %v, want ErrInvalidHandle", err)
	}
	got, _ := scene.LocalTransform(h)
	if !got.ApproxEqual(want) {
		t.Errorf("valid entity not synced: LocalTransform = %v, want %v", got, want)
	}
}
