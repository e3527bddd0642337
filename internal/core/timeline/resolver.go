package timeline

import "time"

// Direction 最近匹配的查找方向
type Direction int

const (
	DirectionEither   Direction = iota // 前后都可，取更近的一侧
	DirectionForward                   // 仅向后（时间更晚）
	DirectionBackward                  // 仅向前（时间更早）
)

// Resolve 找到覆盖 target 的片段下标
// 覆盖判定两端闭区间：start <= t <= start+duration
// 恰好落在相邻片段边界时命中更早的片段（升序扫描先命中其尾沿）
// 未命中返回 (0, false)，这是预期结果而非错误，由调用方决定后续策略
func (t *Timeline) Resolve(target time.Time) (int, bool) {
	for i, seg := range t.Segments {
		if target.Before(seg.Start) {
			// 片段有序，后面不可能再覆盖
			return 0, false
		}
		if !target.After(seg.End()) {
			return i, true
		}
	}
	return 0, false
}

// ResolveNearest 覆盖命中优先，否则按指定方向返回最近的片段
// 解析器从不隐式猜测最近匹配，最近匹配必须由调用方显式选择此操作
func (t *Timeline) ResolveNearest(target time.Time, dir Direction) (int, bool) {
	if i, ok := t.Resolve(target); ok {
		return i, true
	}

	forward, hasForward := t.nextAfter(target)
	backward, hasBackward := t.lastBefore(target)

	switch dir {
	case DirectionForward:
		return forward, hasForward
	case DirectionBackward:
		return backward, hasBackward
	default:
		if hasForward && hasBackward {
			ahead := t.Segments[forward].Start.Sub(target)
			behind := target.Sub(t.Segments[backward].End())
			if ahead < behind {
				return forward, true
			}
			return backward, true
		}
		if hasForward {
			return forward, true
		}
		return backward, hasBackward
	}
}

// NextIndex 下一个片段下标，越界返回 false 表示播放耗尽
func (t *Timeline) NextIndex(current int) (int, bool) {
	next := current + 1
	if next < 0 || next >= len(t.Segments) {
		return 0, false
	}
	return next, true
}

// nextAfter 第一个完全位于 target 之后的片段
func (t *Timeline) nextAfter(target time.Time) (int, bool) {
	for i, seg := range t.Segments {
		if seg.Start.After(target) {
			return i, true
		}
	}
	return 0, false
}

// lastBefore 最后一个完全位于 target 之前的片段
func (t *Timeline) lastBefore(target time.Time) (int, bool) {
	for i := len(t.Segments) - 1; i >= 0; i-- {
		if t.Segments[i].End().Before(target) {
			return i, true
		}
	}
	return 0, false
}
