// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"
	"testing"
	"time"
)

func TestFrameTimerFirstTickIsZero(t *testing.T) {
	timer := NewFrameTimer(10)
	if delta := timer.Tick(); delta != 0 {
		t.Errorf("first tick should have no interval, got %f", delta)
	}
	time.Sleep(time.Millisecond)
	if delta := timer.Tick(); delta <= 0 {
		t.Errorf("second tick should be positive, got %f", delta)
	}
}

func TestFrameTimerAverageOverFullWindow(t *testing.T) {
	const window = 8
	timer := NewFrameTimer(window)

	// Fill the window with noise, then overwrite it completely
	for i := 0; i < window; i++ {
		timer.Push(100.0)
	}
	for i := 0; i < window; i++ {
		timer.Push(0.016)
	}

	if avg := timer.Average(); math.Abs(avg-0.016) > 1e-12 {
		t.Errorf("expected average 0.016, got %f", avg)
	}
	if timer.Count() != window {
		t.Errorf("expected %d samples, got %d", window, timer.Count())
	}
}

func TestFrameTimerPartialWindow(t *testing.T) {
	timer := NewFrameTimer(100)
	timer.Push(1.0)
	timer.Push(3.0)

	if avg := timer.Average(); avg != 2.0 {
		t.Errorf("expected mean of pushed samples, got %f", avg)
	}
	if timer.Count() != 2 {
		t.Errorf("expected 2 samples, got %d", timer.Count())
	}
}

func TestFrameTimerEmptyAverage(t *testing.T) {
	timer := NewFrameTimer(10)
	if avg := timer.Average(); avg != 0 {
		t.Errorf("empty timer should average to zero, got %f", avg)
	}
}

func TestFrameTimerDefaultsWindowSize(t *testing.T) {
	timer := NewFrameTimer(0)
	for i := 0; i < DefaultFrameTimeSampleCount+10; i++ {
		timer.Push(1.0)
	}
	if timer.Count() != DefaultFrameTimeSampleCount {
		t.Errorf("expected window capped at %d, got %d",
			DefaultFrameTimeSampleCount, timer.Count())
	}
}
