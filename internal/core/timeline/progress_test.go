package timeline

import (
	"math"
	"testing"
	"time"
)

func TestProgress(t *testing.T) {
	anchor := time.Unix(0, 0)
	nominal := 300 * time.Second

	tests := []struct {
		now      int64
		elapsed  time.Duration
		fraction float64
	}{
		{125, 125 * time.Second, 125.0 / 300.0},
		{305, 5 * time.Second, 5.0 / 300.0},
		{0, 0, 0},
		{300, 0, 0}, // 整周期回绕，fraction 始终落在 [0,1)
	}
	for _, tt := range tests {
		elapsed, fraction := Progress(time.Unix(tt.now, 0), nominal, anchor)
		if elapsed != tt.elapsed {
			t.Errorf("Progress(now=%d) elapsed = %v, want %v", tt.now, elapsed, tt.elapsed)
		}
		if math.Abs(fraction-tt.fraction) > 1e-9 {
			t.Errorf("Progress(now=%d) fraction = %v, want %v", tt.now, fraction, tt.fraction)
		}
		if fraction < 0 || fraction >= 1 {
			t.Errorf("fraction %v out of [0,1)", fraction)
		}
	}
}

func TestProgressBeforeAnchor(t *testing.T) {
	// now 早于 anchor 时模运算仍需落在 [0, nominal)
	anchor := time.Unix(1000, 0)
	elapsed, fraction := Progress(time.Unix(995, 0), 300*time.Second, anchor)
	if elapsed != 295*time.Second {
		t.Errorf("elapsed = %v, want 295s", elapsed)
	}
	if fraction < 0 || fraction >= 1 {
		t.Errorf("fraction %v out of [0,1)", fraction)
	}
}

func TestProgressZeroDuration(t *testing.T) {
	elapsed, fraction := Progress(time.Unix(100, 0), 0, time.Unix(0, 0))
	if elapsed != 0 || fraction != 0 {
		t.Errorf("Progress with zero nominal = (%v,%v), want (0,0)", elapsed, fraction)
	}
}
