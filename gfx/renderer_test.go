// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "testing"

// An out of date acquire hands out no image, so the frame that would
// normally carry the deferred rebuild never happens. The plan must
// demand an immediate rebuild; mapping it to a mark-and-defer would
// leave the caller skipping frames until the end of time.
func TestPlanForAcquire(t *testing.T) {
	cases := []struct {
		name   string
		result AcquireResult
		want   acquirePlan
	}{
		{"success renders", AcquireSuccess, planRender},
		{"suboptimal renders and defers the rebuild", AcquireSuboptimal, planRenderAndMark},
		{"out of date rebuilds before the next attempt", AcquireOutOfDate, planRebuild},
	}

	for _, c := range cases {
		if got := planForAcquire(c.result); got != c.want {
			t.Errorf("%s: plan = %d, want %d", c.name, got, c.want)
		}
	}
}
