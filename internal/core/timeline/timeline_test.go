package timeline

import (
	"errors"
	"testing"
	"time"
)

func mustBuild(t *testing.T, segments []Segment) *Timeline {
	t.Helper()
	tl, err := Build(segments)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tl
}

func at(hour, min, sec int) time.Time {
	return time.Date(2025, 6, 15, hour, min, sec, 0, time.UTC)
}

func seg(start time.Time, seconds int) Segment {
	return Segment{Start: start, Duration: time.Duration(seconds) * time.Second}
}

func TestBuildRange(t *testing.T) {
	tl := mustBuild(t, []Segment{
		seg(at(10, 3, 20), 300),
		seg(at(10, 10, 0), 300),
		seg(at(12, 55, 0), 300),
	})

	if got, want := tl.RangeStart, at(10, 0, 0); !got.Equal(want) {
		t.Errorf("RangeStart = %v, want %v", got, want)
	}
	// 最后一个片段结束于 13:00:00，恰好在小时边界上，不再进位
	if got, want := tl.RangeEnd, at(13, 0, 0); !got.Equal(want) {
		t.Errorf("RangeEnd = %v, want %v", got, want)
	}

	if tl.RangeStart.After(tl.Segments[0].Start) {
		t.Error("RangeStart must not clip the first segment")
	}
	last := tl.Segments[len(tl.Segments)-1]
	if tl.RangeEnd.Before(last.End()) {
		t.Error("RangeEnd must not clip the last segment")
	}
}

func TestBuildRangeCeil(t *testing.T) {
	// 结束于 10:08:20，应进位到 11:00:00
	tl := mustBuild(t, []Segment{seg(at(10, 3, 20), 300)})
	if got, want := tl.RangeEnd, at(11, 0, 0); !got.Equal(want) {
		t.Errorf("RangeEnd = %v, want %v", got, want)
	}
}

func TestBuildEmpty(t *testing.T) {
	tl, err := Build(nil)
	if err != nil {
		t.Fatalf("empty input must be a valid no-recordings result, got %v", err)
	}
	if !tl.IsEmpty() {
		t.Error("IsEmpty() = false")
	}
	if gaps := tl.Gaps(); gaps != nil {
		t.Errorf("Gaps() = %v, want nil", gaps)
	}
}

func TestBuildUnordered(t *testing.T) {
	_, err := Build([]Segment{
		seg(at(10, 10, 0), 300),
		seg(at(10, 0, 0), 300),
	})
	if !errors.Is(err, ErrUnordered) {
		t.Fatalf("Build() error = %v, want ErrUnordered", err)
	}
}

func TestBuildOverlap(t *testing.T) {
	_, err := Build([]Segment{
		seg(at(10, 0, 0), 300),
		seg(at(10, 4, 0), 300),
	})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("Build() error = %v, want ErrOverlap", err)
	}
}

func TestBuildGeometry(t *testing.T) {
	tl := mustBuild(t, []Segment{
		seg(at(10, 0, 0), 1800),
		seg(at(10, 30, 0), 1800),
	})
	// 范围恰好 10:00-11:00
	first := tl.Segments[0]
	if first.OffsetFraction != 0 {
		t.Errorf("OffsetFraction = %v, want 0", first.OffsetFraction)
	}
	if first.WidthFraction != 0.5 {
		t.Errorf("WidthFraction = %v, want 0.5", first.WidthFraction)
	}

	// 最后一个片段不得溢出 RangeEnd
	const epsilon = 1e-9
	last := tl.Segments[len(tl.Segments)-1]
	if last.OffsetFraction+last.WidthFraction > 1+epsilon {
		t.Errorf("last segment overflows range: offset=%v width=%v",
			last.OffsetFraction, last.WidthFraction)
	}
}

func TestBuildMinVisibleFraction(t *testing.T) {
	// 24 小时范围内的 1 秒片段，真实比例约 0.0000116，仍需保持可见宽度
	tl := mustBuild(t, []Segment{
		seg(at(0, 0, 1), 1),
		seg(at(23, 30, 0), 300),
	})
	if got := tl.Segments[0].WidthFraction; got != MinVisibleFraction {
		t.Errorf("WidthFraction = %v, want %v", got, MinVisibleFraction)
	}
}

func TestGaps(t *testing.T) {
	tl := mustBuild(t, []Segment{
		seg(at(10, 0, 0), 300),
		seg(at(10, 10, 0), 300),
	})

	gaps := tl.Gaps()
	want := []Gap{
		{Start: at(10, 5, 0), End: at(10, 10, 0)},
		{Start: at(10, 15, 0), End: at(11, 0, 0)},
	}
	if len(gaps) != len(want) {
		t.Fatalf("Gaps() len = %d, want %d: %v", len(gaps), len(want), gaps)
	}
	for i := range want {
		if !gaps[i].Start.Equal(want[i].Start) || !gaps[i].End.Equal(want[i].End) {
			t.Errorf("gap[%d] = %v-%v, want %v-%v", i, gaps[i].Start, gaps[i].End, want[i].Start, want[i].End)
		}
	}
}

func TestClampFraction(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.37, 0.37},
		{1, 1},
		{1.2, 1},
	}
	for _, tt := range tests {
		if got := ClampFraction(tt.in); got != tt.want {
			t.Errorf("ClampFraction(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTimeAt(t *testing.T) {
	tl := mustBuild(t, []Segment{seg(at(10, 0, 0), 3600)})
	if got, want := tl.TimeAt(0.5), at(10, 30, 0); !got.Equal(want) {
		t.Errorf("TimeAt(0.5) = %v, want %v", got, want)
	}
	// 越界位置钳制到边界
	if got := tl.TimeAt(1.5); !got.Equal(tl.RangeEnd) {
		t.Errorf("TimeAt(1.5) = %v, want %v", got, tl.RangeEnd)
	}
	if got := tl.TimeAt(-1); !got.Equal(tl.RangeStart) {
		t.Errorf("TimeAt(-1) = %v, want %v", got, tl.RangeStart)
	}
}
