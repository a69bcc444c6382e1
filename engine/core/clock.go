package core

import "time"

/**
 * @brief Measures frame time for the render loop. The zero value is a
 * stopped clock.
 */
type Clock struct {
	startTime time.Time
	lastTick  time.Time
	frames    uint64
}

func NewClock() *Clock {
	return &Clock{}
}

// Start resets the clock and the frame counter.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.lastTick = c.startTime
	c.frames = 0
}

func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

func (c *Clock) IsRunning() bool {
	return !c.startTime.IsZero()
}

/**
 * @brief Marks a frame and returns the seconds since the previous one.
 * A stopped clock always returns 0.
 */
func (c *Clock) Tick() float64 {
	if !c.IsRunning() {
		return 0
	}
	now := time.Now()
	delta := now.Sub(c.lastTick)
	c.lastTick = now
	c.frames++
	return delta.Seconds()
}

// Elapsed returns the seconds since Start, 0 when stopped.
func (c *Clock) Elapsed() float64 {
	if !c.IsRunning() {
		return 0
	}
	return time.Since(c.startTime).Seconds()
}

func (c *Clock) Frames() uint64 {
	return c.frames
}
