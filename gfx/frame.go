// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// frameLedger is the bookkeeping half of the frame orchestrator. It
// tracks the frame slot cycle, the in-progress guard, the sticky
// recreation flag and the recreation cooldown. It touches no GPU
// state, which keeps the protocol decisions testable on their own.
type frameLedger struct {
	slots int

	current    int
	total      uint64
	inProgress bool

	wantRecreate bool
	lastRecreate int64
	cooldown     int64
}

func newFrameLedger(slots int, cooldown int64) frameLedger {
	return frameLedger{
		slots:    slots,
		cooldown: cooldown,
		// lets the very first recreation through immediately
		lastRecreate: -cooldown,
	}
}

// begin opens a frame on the current slot. Frames do not nest.
func (l *frameLedger) begin() error {
	if l.inProgress {
		return ErrFrameInProgress
	}
	l.inProgress = true
	return nil
}

// abort closes a frame that never made it to submission, without
// advancing the slot cycle or the total counter.
func (l *frameLedger) abort() {
	l.inProgress = false
}

// end closes the frame and advances to the next slot
func (l *frameLedger) end() {
	l.inProgress = false
	l.current = (l.current + 1) % l.slots
	l.total++
}

// slot returns the current frame slot index
func (l *frameLedger) slot() int {
	return l.current
}

// frames returns the monotonic total frame counter
func (l *frameLedger) frames() uint64 {
	return l.total
}

// markRecreate sets the sticky recreation flag
func (l *frameLedger) markRecreate() {
	l.wantRecreate = true
}

// shouldRecreate reports whether a recreation is both wanted and
// allowed by the cooldown. The flag stays sticky while the cooldown
// holds it back, so a burst of resize events collapses into a single
// recreation once the window reopens.
func (l *frameLedger) shouldRecreate() bool {
	if !l.wantRecreate {
		return false
	}
	return int64(l.total)-l.lastRecreate >= l.cooldown
}

// didRecreate consumes the flag and restarts the cooldown window
func (l *frameLedger) didRecreate() {
	l.wantRecreate = false
	l.lastRecreate = int64(l.total)
}
