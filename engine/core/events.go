package core

import "sync"

// EventContext carries the payload of a fired event. Data is event specific,
// see the code documentation for the concrete type.
type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// A new scene generation finished building.
	/* Context usage:
	 * data := ctx.Data.(*SceneEvent)
	 */
	EVENT_CODE_SCENE_BUILT SystemEventCode = 0x01

	// The active scene generation was torn down.
	/* Context usage:
	 * data := ctx.Data.(*SceneEvent)
	 */
	EVENT_CODE_SCENE_RESET SystemEventCode = 0x02

	// An offscreen export produced an image.
	/* Context usage:
	 * data := ctx.Data.(*ExportEvent)
	 */
	EVENT_CODE_EXPORT_COMPLETED SystemEventCode = 0x03

	// The photorealization session moved to a new step.
	/* Context usage:
	 * data := ctx.Data.(*StageEvent)
	 */
	EVENT_CODE_PHOTOREAL_STAGE SystemEventCode = 0x04

	// A frame was rendered by the render loop.
	/* Context usage:
	 * seconds := ctx.Data.(float64)
	 */
	EVENT_CODE_FRAME_RENDERED SystemEventCode = 0x05

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type SceneEvent struct {
	Generation uint32
	Geometries int
	Materials  int
	Billboards int
}

type ExportEvent struct {
	Width   uint32
	Height  uint32
	Seconds float64
	Err     error
}

type StageEvent struct {
	SessionID string
	Stage     string
	Outcome   string
}

// Should return true if handled. Handled events are not passed on.
type FnOnEvent func(ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

var eventState = &eventSystemState{
	registered: make(map[SystemEventCode][]*registeredEvent),
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return false.
 */
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code `%d`", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister removes the listener for the given code. Returns false when
// nothing matched.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()

	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 */
func EventFire(ctx EventContext) bool {
	eventState.mu.RLock()
	events := make([]*registeredEvent, len(eventState.registered[ctx.Type]))
	copy(events, eventState.registered[ctx.Type])
	eventState.mu.RUnlock()

	for _, e := range events {
		if e.callback(ctx) {
			return true
		}
	}
	return false
}
