// Package ecs provides ECS adapters for linden scenes.
//
// [NewDonburiSink] bridges scene events (pre/post render, geom reloads)
// into a [Donburi] world as typed events. Subscribe to [SceneEventType] in
// your ECS systems to receive them. [SyncPlacements] drives instance
// transforms from [InstanceComponent] data.
//
// Usage:
//
//	scene.SetEventSink(ecs.NewDonburiSink(world))
//	// each tick
//	ecs.SyncPlacements(world, scene)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
