package systems

import (
	"errors"
	"sync"
	"time"

	"github.com/spaghettifunk/gardenia/engine/core"
)

/**
 * @brief Source of frame ticks. Ack is called after every handled tick.
 */
type FrameScheduler interface {
	Ticks() <-chan time.Time
	Ack()
	Stop()
}

type TickerScheduler struct {
	ticker *time.Ticker
}

func NewTickerScheduler(fps uint32) *TickerScheduler {
	if fps == 0 {
		fps = 30
	}
	return &TickerScheduler{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

func (t *TickerScheduler) Ticks() <-chan time.Time { return t.ticker.C }
func (t *TickerScheduler) Ack()                    {}
func (t *TickerScheduler) Stop()                   { t.ticker.Stop() }

// ManualScheduler ticks only when stepped. It can be reused across loop
// restarts.
type ManualScheduler struct {
	ticks chan time.Time
	acks  chan struct{}
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		ticks: make(chan time.Time),
		acks:  make(chan struct{}, 1),
	}
}

func (m *ManualScheduler) Ticks() <-chan time.Time { return m.ticks }
func (m *ManualScheduler) Stop()                   {}

func (m *ManualScheduler) Ack() {
	select {
	case m.acks <- struct{}{}:
	default:
	}
}

// Step delivers one tick and waits for it to be handled. Returns false when
// no loop picked the tick up within timeout.
func (m *ManualScheduler) Step(timeout time.Duration) bool {
	select {
	case m.ticks <- time.Now():
	case <-time.After(timeout):
		return false
	}
	select {
	case <-m.acks:
		return true
	case <-time.After(timeout):
		return false
	}
}

/**
 * @brief Drives frames of the scene on its own goroutine. Each tick updates
 * billboards and renders; the loop cancels itself as soon as there is no
 * scene to draw.
 */
type RenderLoop struct {
	mu           sync.Mutex
	scene        *SceneManager
	newScheduler func() FrameScheduler
	running      bool
	stop         chan struct{}
	done         chan struct{}
	frames       uint64
}

func NewRenderLoop(scene *SceneManager, newScheduler func() FrameScheduler) *RenderLoop {
	l := &RenderLoop{scene: scene, newScheduler: newScheduler}
	scene.AttachLoop(l)
	return l
}

func (l *RenderLoop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *RenderLoop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Start is idempotent.
func (l *RenderLoop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.newScheduler(), l.stop, l.done)
}

// Stop waits for the loop goroutine to exit. Stopping a stopped loop is a no-op.
func (l *RenderLoop) Stop() {
	l.mu.Lock()
	done := l.done
	if l.running {
		l.running = false
		close(l.stop)
	}
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (l *RenderLoop) run(scheduler FrameScheduler, stop, done chan struct{}) {
	defer close(done)
	defer scheduler.Stop()

	clock := core.NewClock()
	clock.Start()
	for {
		select {
		case <-stop:
			return
		case <-scheduler.Ticks():
			if !l.tick(clock.Tick()) {
				l.mu.Lock()
				if l.stop == stop {
					l.running = false
				}
				l.mu.Unlock()
				scheduler.Ack()
				core.LogDebug("render loop stopped, no scene to draw")
				return
			}
			scheduler.Ack()
		}
	}
}

func (l *RenderLoop) tick(delta float64) bool {
	err := l.scene.Render(delta)
	if errors.Is(err, core.ErrNoScene) || errors.Is(err, core.ErrDisposed) {
		return false
	}
	if err != nil {
		// Already logged by the renderer; keep scheduling.
		return true
	}
	l.mu.Lock()
	l.frames++
	l.mu.Unlock()
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_FRAME_RENDERED, Data: delta})
	return true
}
