// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "time"

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FrameTimeSampleCount is the size of the rolling frame time
	// window. Zero means DefaultFrameTimeSampleCount.
	FrameTimeSampleCount int
}

// DefaultFrameTimeSampleCount is the rolling window size used when
// the configuration leaves it unset
const DefaultFrameTimeSampleCount = 100

// NewFrameTimer creates a frame timer with a rolling average window
// of sampleCount frames.
func NewFrameTimer(sampleCount int) *FrameTimer {
	if sampleCount <= 0 {
		sampleCount = DefaultFrameTimeSampleCount
	}
	return &FrameTimer{
		capacity: sampleCount,
		samples:  make([]float64, 0, sampleCount),
	}
}

// FrameTimer computes per frame delta time and keeps a rolling
// average of the last N frame times. The sum is maintained
// incrementally, the average never rescans the window.
type FrameTimer struct {
	last  time.Time
	delta float64

	capacity int
	samples  []float64
	head     int
	sum      float64
}

// Tick computes the time elapsed since the previous Tick and returns
// it in seconds. The first tick has no previous timestamp and yields
// zero rather than a garbage interval.
func (t *FrameTimer) Tick() float64 {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.delta = 0
		return 0
	}
	t.delta = now.Sub(t.last).Seconds()
	t.last = now
	return t.delta
}

// Push records a frame time sample into the rolling window
func (t *FrameTimer) Push(sample float64) {
	if len(t.samples) < t.capacity {
		t.samples = append(t.samples, sample)
		t.sum += sample
		return
	}
	// Window full: evict the oldest sample in place
	t.sum -= t.samples[t.head]
	t.samples[t.head] = sample
	t.sum += sample
	t.head = (t.head + 1) % t.capacity
}

// Delta returns the seconds between the two most recent ticks
func (t *FrameTimer) Delta() float64 {
	return t.delta
}

// Average returns the mean of the samples currently in the window,
// or zero when none were pushed yet.
func (t *FrameTimer) Average() float64 {
	if len(t.samples) == 0 {
		return 0
	}
	return t.sum / float64(len(t.samples))
}

// Count returns how many samples the window currently holds
func (t *FrameTimer) Count() int {
	return len(t.samples)
}
