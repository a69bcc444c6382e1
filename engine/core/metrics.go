package core

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spaghettifunk/gardenia/engine/containers"
)

const AVG_COUNT int = 30

type MetricsState struct {
	mu                 sync.Mutex
	frameTimes         *containers.RingQueue[float64]
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

var onceMetrics sync.Once
var metricsState *MetricsState

var (
	registry = prometheus.NewRegistry()

	framesRendered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gardenia",
		Name:      "frames_rendered_total",
		Help:      "Frames rendered by the render loop.",
	})
	sceneBuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gardenia",
		Name:      "scene_builds_total",
		Help:      "Scene generations built.",
	})
	sceneResets = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gardenia",
		Name:      "scene_resets_total",
		Help:      "Scene generations torn down.",
	})
	liveResources = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gardenia",
		Name:      "live_resources",
		Help:      "Live GPU resource handles by kind.",
	}, []string{"kind"})
	exportSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gardenia",
		Name:      "export_duration_seconds",
		Help:      "Duration of offscreen exports.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"outcome"})
	stageOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gardenia",
		Name:      "photoreal_stage_total",
		Help:      "Photorealization stage transitions by outcome.",
	}, []string{"stage", "outcome"})
)

// MetricsInitialize registers the collectors and subscribes them to the
// engine events. Safe to call more than once.
func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			frameTimes: containers.NewRingQueue[float64](AVG_COUNT),
		}
		registry.MustRegister(framesRendered, sceneBuilds, sceneResets, liveResources, exportSeconds, stageOutcomes)

		EventRegister(EVENT_CODE_FRAME_RENDERED, metricsState, func(ctx EventContext) bool {
			if s, ok := ctx.Data.(float64); ok {
				MetricsUpdate(s)
			}
			return false
		})
		EventRegister(EVENT_CODE_SCENE_BUILT, metricsState, func(EventContext) bool {
			sceneBuilds.Inc()
			return false
		})
		EventRegister(EVENT_CODE_SCENE_RESET, metricsState, func(EventContext) bool {
			sceneResets.Inc()
			return false
		})
		EventRegister(EVENT_CODE_EXPORT_COMPLETED, metricsState, func(ctx EventContext) bool {
			if e, ok := ctx.Data.(*ExportEvent); ok {
				outcome := "ok"
				if e.Err != nil {
					outcome = "error"
				}
				exportSeconds.WithLabelValues(outcome).Observe(e.Seconds)
			}
			return false
		})
		EventRegister(EVENT_CODE_PHOTOREAL_STAGE, metricsState, func(ctx EventContext) bool {
			if e, ok := ctx.Data.(*StageEvent); ok {
				stageOutcomes.WithLabelValues(e.Stage, e.Outcome).Inc()
			}
			return false
		})
	})
	return nil
}

// MetricsRegistry exposes the registry backing the /metrics endpoint.
func MetricsRegistry() *prometheus.Registry {
	return registry
}

// MetricsSetLiveResources publishes the number of live handles of a kind.
func MetricsSetLiveResources(kind string, count int) {
	liveResources.WithLabelValues(kind).Set(float64(count))
}

func MetricsUpdate(frameElapsedTime float64) {
	if metricsState == nil {
		return
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()

	framesRendered.Inc()

	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	metricsState.frameTimes.Push(frameMS)
	total := 0.0
	metricsState.frameTimes.Each(func(v float64) { total += v })
	metricsState.MSavg = total / float64(metricsState.frameTimes.Len())

	// Calculate Frames per second.
	metricsState.AccumulatedFrameMS += frameMS
	metricsState.Frames++
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}
}

func MetricsFPS() float64 {
	fps, _ := MetricsFrame()
	return fps
}

func MetricsFrameTime() float64 {
	_, ms := MetricsFrame()
	return ms
}

func MetricsFrame() (float64, float64) {
	if metricsState == nil {
		return 0, 0
	}
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.FPS, metricsState.MSavg
}
