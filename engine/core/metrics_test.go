package core

import (
	"math"
	"testing"
)

func TestMetricsFrameAverage(t *testing.T) {
	if err := MetricsInitialize(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < AVG_COUNT; i++ {
		MetricsUpdate(0.016)
	}
	if got := MetricsFrameTime(); math.Abs(got-16) > 1e-9 {
		t.Errorf("frame time avg = %v, want 16", got)
	}

	families, err := MetricsRegistry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "gardenia_frames_rendered_total" {
			found = true
			if v := f.GetMetric()[0].GetCounter().GetValue(); v < float64(AVG_COUNT) {
				t.Errorf("frames counter = %v, want >= %d", v, AVG_COUNT)
			}
		}
	}
	if !found {
		t.Error("frames counter not registered")
	}
}

func TestEventFireStopsWhenHandled(t *testing.T) {
	const code SystemEventCode = 0x200
	var calls []string
	first, second := new(int), new(int)
	EventRegister(code, first, func(EventContext) bool {
		calls = append(calls, "first")
		return true
	})
	EventRegister(code, second, func(EventContext) bool {
		calls = append(calls, "second")
		return false
	})
	defer EventUnregister(code, first)
	defer EventUnregister(code, second)

	if !EventFire(EventContext{Type: code}) {
		t.Fatal("expected event to be handled")
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("unexpected calls %v", calls)
	}
	if EventRegister(code, first, func(EventContext) bool { return false }) {
		t.Error("duplicate listener registration should fail")
	}
}
