package timeline

import (
	"testing"
	"time"
)

// gapTimeline 10:00:00 与 10:10:00 各 300 秒，中间 5 分钟无录像
func gapTimeline(t *testing.T) *Timeline {
	t.Helper()
	return mustBuild(t, []Segment{
		seg(at(10, 0, 0), 300),
		seg(at(10, 10, 0), 300),
	})
}

func TestResolve(t *testing.T) {
	tl := gapTimeline(t)

	tests := []struct {
		name   string
		target time.Time
		index  int
		ok     bool
	}{
		{"inside first", at(10, 2, 30), 0, true},
		{"inside second", at(10, 12, 0), 1, true},
		{"start edge inclusive", at(10, 0, 0), 0, true},
		{"end edge inclusive", at(10, 5, 0), 0, true},
		{"in gap", at(10, 6, 0), 0, false},
		{"before range", at(9, 0, 0), 0, false},
		{"after range", at(11, 0, 0), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := tl.Resolve(tt.target)
			if ok != tt.ok || (ok && idx != tt.index) {
				t.Errorf("Resolve(%v) = (%d,%v), want (%d,%v)", tt.target, idx, ok, tt.index, tt.ok)
			}
		})
	}
}

// TestResolveBoundaryTie 相邻片段边界上的时间归属更早片段的尾沿
func TestResolveBoundaryTie(t *testing.T) {
	tl := mustBuild(t, []Segment{
		seg(at(10, 0, 0), 300),
		seg(at(10, 5, 0), 300),
	})
	idx, ok := tl.Resolve(at(10, 5, 0))
	if !ok || idx != 0 {
		t.Errorf("Resolve(boundary) = (%d,%v), want (0,true)", idx, ok)
	}
}

// TestResolveIdempotent 同一时间轴同一时间戳的解析结果必须稳定
func TestResolveIdempotent(t *testing.T) {
	tl := gapTimeline(t)
	target := at(10, 2, 0)

	i1, ok1 := tl.Resolve(target)
	i2, ok2 := tl.Resolve(target)
	if i1 != i2 || ok1 != ok2 {
		t.Errorf("Resolve not idempotent: (%d,%v) then (%d,%v)", i1, ok1, i2, ok2)
	}
}

func TestResolveNearest(t *testing.T) {
	tl := gapTimeline(t)
	inGap := at(10, 6, 0)

	// 覆盖命中时各方向都直接返回命中片段
	if idx, ok := tl.ResolveNearest(at(10, 2, 0), DirectionForward); !ok || idx != 0 {
		t.Errorf("covering hit = (%d,%v), want (0,true)", idx, ok)
	}

	if idx, ok := tl.ResolveNearest(inGap, DirectionForward); !ok || idx != 1 {
		t.Errorf("forward = (%d,%v), want (1,true)", idx, ok)
	}
	if idx, ok := tl.ResolveNearest(inGap, DirectionBackward); !ok || idx != 0 {
		t.Errorf("backward = (%d,%v), want (0,true)", idx, ok)
	}

	// 10:06 距前段尾沿 60s，距后段起点 240s，either 取更近的前段
	if idx, ok := tl.ResolveNearest(inGap, DirectionEither); !ok || idx != 0 {
		t.Errorf("either = (%d,%v), want (0,true)", idx, ok)
	}

	// 指定方向没有片段时返回 miss
	if _, ok := tl.ResolveNearest(at(9, 0, 0), DirectionBackward); ok {
		t.Error("backward before range: want miss")
	}
	if _, ok := tl.ResolveNearest(at(11, 30, 0), DirectionForward); ok {
		t.Error("forward after range: want miss")
	}
}

func TestNextIndex(t *testing.T) {
	tl := mustBuild(t, []Segment{
		seg(at(10, 0, 0), 300),
		seg(at(10, 10, 0), 300),
		seg(at(10, 20, 0), 300),
	})

	if idx, ok := tl.NextIndex(0); !ok || idx != 1 {
		t.Errorf("NextIndex(0) = (%d,%v), want (1,true)", idx, ok)
	}
	if idx, ok := tl.NextIndex(1); !ok || idx != 2 {
		t.Errorf("NextIndex(1) = (%d,%v), want (2,true)", idx, ok)
	}
	if _, ok := tl.NextIndex(2); ok {
		t.Error("NextIndex(last) must report exhausted")
	}
	if _, ok := tl.NextIndex(-2); ok {
		t.Error("NextIndex(-2) must report exhausted")
	}
}
