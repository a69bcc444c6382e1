package systems

import (
	"testing"
	"time"
)

const stepTimeout = 2 * time.Second

func TestRenderLoopDrawsWhileSceneIsLive(t *testing.T) {
	sm, backends := readyScene(t, testSceneConfig())
	sched := NewManualScheduler()
	loop := NewRenderLoop(sm, func() FrameScheduler { return sched })

	loop.Start()
	loop.Start()
	for i := 0; i < 3; i++ {
		if !sched.Step(stepTimeout) {
			t.Fatalf("tick %d not handled", i)
		}
	}
	if loop.Frames() != 3 {
		t.Fatalf("frames = %d, want 3", loop.Frames())
	}
	if got := backends.last().Total().Frames; got != 3 {
		t.Fatalf("backend frames = %d, want 3", got)
	}

	loop.Stop()
	loop.Stop()
	if loop.IsRunning() {
		t.Fatal("loop still running after Stop")
	}
}

func TestResetStopsTheLoop(t *testing.T) {
	sm, _ := readyScene(t, testSceneConfig())
	sched := NewManualScheduler()
	loop := NewRenderLoop(sm, func() FrameScheduler { return sched })
	loop.Start()
	if !sched.Step(stepTimeout) {
		t.Fatal("tick not handled")
	}

	sm.Reset()
	if loop.IsRunning() {
		t.Fatal("loop kept running across reset")
	}
	if sched.Step(50 * time.Millisecond) {
		t.Fatal("a stopped loop handled a tick")
	}
}

func TestRenderLoopCancelsItselfWithoutScene(t *testing.T) {
	sm, _ := newTestScene(t, testSceneConfig())
	sched := NewManualScheduler()
	loop := NewRenderLoop(sm, func() FrameScheduler { return sched })

	loop.Start()
	if !sched.Step(stepTimeout) {
		t.Fatal("tick not handled")
	}
	deadline := time.Now().Add(stepTimeout)
	for loop.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if loop.IsRunning() {
		t.Fatal("loop did not cancel itself")
	}
	if loop.Frames() != 0 {
		t.Fatalf("frames = %d, want 0", loop.Frames())
	}

	// A later start with a scene runs again.
	if err := sm.Build(Viewport{Width: 64, Height: 64}, rectangle(), nil); err != nil {
		t.Fatal(err)
	}
	loop.Start()
	if !sched.Step(stepTimeout) || loop.Frames() != 1 {
		t.Fatalf("restarted loop frames = %d, want 1", loop.Frames())
	}
	loop.Stop()
}
