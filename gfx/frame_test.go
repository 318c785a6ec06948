// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "testing"

func TestLedgerSlotCycle(t *testing.T) {
	ledger := newFrameLedger(2, recreateCooldownFrames)

	expected := []int{0, 1, 0, 1, 0}
	for i, want := range expected {
		if err := ledger.begin(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got := ledger.slot(); got != want {
			t.Errorf("frame %d: slot = %d, want %d", i, got, want)
		}
		ledger.end()
	}

	if ledger.frames() != 5 {
		t.Errorf("total frames = %d, want 5", ledger.frames())
	}
}

func TestLedgerRejectsNestedFrames(t *testing.T) {
	ledger := newFrameLedger(2, recreateCooldownFrames)

	if err := ledger.begin(); err != nil {
		t.Fatal(err)
	}
	if err := ledger.begin(); err != ErrFrameInProgress {
		t.Errorf("nested begin = %v, want ErrFrameInProgress", err)
	}
	ledger.end()

	if err := ledger.begin(); err != nil {
		t.Errorf("begin after end: %v", err)
	}
}

func TestLedgerAbortKeepsSlot(t *testing.T) {
	ledger := newFrameLedger(3, recreateCooldownFrames)

	if err := ledger.begin(); err != nil {
		t.Fatal(err)
	}
	ledger.abort()

	if ledger.slot() != 0 {
		t.Errorf("slot advanced on abort: %d", ledger.slot())
	}
	if ledger.frames() != 0 {
		t.Errorf("total advanced on abort: %d", ledger.frames())
	}
	if err := ledger.begin(); err != nil {
		t.Errorf("begin after abort: %v", err)
	}
}

// A burst of recreation requests landing inside a single cooldown
// window must collapse into one recreation, with the rest held back
// on the sticky flag.
func TestLedgerRecreationCooldown(t *testing.T) {
	ledger := newFrameLedger(2, recreateCooldownFrames)

	recreations := 0
	for i := 0; i < 10; i++ {
		ledger.markRecreate()
		if ledger.shouldRecreate() {
			ledger.didRecreate()
			recreations++
		}
		// advance fewer frames than the cooldown spans, keeping the
		// whole burst inside one window
		if i%3 == 0 {
			if err := ledger.begin(); err != nil {
				t.Fatal(err)
			}
			ledger.end()
		}
	}

	if recreations != 1 {
		t.Errorf("recreations = %d, want 1", recreations)
	}
	if !ledger.wantRecreate {
		t.Error("requests after the recreation were dropped instead of held")
	}
}

func TestLedgerStickyFlagSurvivesCooldown(t *testing.T) {
	ledger := newFrameLedger(2, recreateCooldownFrames)

	ledger.begin()
	ledger.end()
	ledger.markRecreate()
	if !ledger.shouldRecreate() {
		t.Fatal("first recreation should pass immediately")
	}
	ledger.didRecreate()

	// Request during the cooldown window stays pending
	ledger.markRecreate()
	if ledger.shouldRecreate() {
		t.Fatal("recreation allowed inside cooldown window")
	}

	for i := 0; i < recreateCooldownFrames; i++ {
		ledger.begin()
		ledger.end()
	}
	if !ledger.shouldRecreate() {
		t.Error("pending recreation lost after cooldown elapsed")
	}
}

// Image count and slot count cycle independently. The index for the
// render finished semaphore must come from the acquire, never from the
// slot; with 3 images and 2 slots the two cycles diverge immediately.
func TestLedgerSlotsIndependentOfImageCount(t *testing.T) {
	const images = 3
	ledger := newFrameLedger(2, recreateCooldownFrames)

	diverged := false
	for frame := 0; frame < 6; frame++ {
		if err := ledger.begin(); err != nil {
			t.Fatal(err)
		}
		imageIndex := frame % images // what a round robin acquire hands out
		if imageIndex != ledger.slot() {
			diverged = true
		}
		ledger.end()
	}

	if !diverged {
		t.Error("slot and image cycles never diverged, test premise broken")
	}
	if ledger.frames() != 6 {
		t.Errorf("total = %d, want 6", ledger.frames())
	}
}
