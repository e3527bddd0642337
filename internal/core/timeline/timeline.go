package timeline

import (
	"errors"
	"time"
)

// MinVisibleFraction 片段在时间轴上的最小可见宽度比例
// 避免超短片段（如 1 秒）在 24 小时轴上缩成不可点击的亚像素
const MinVisibleFraction = 0.002

var (
	// ErrUnordered 输入片段未按开始时间升序排列，说明目录快照有缺陷
	// 构建器不做隐式重排，必须把问题暴露给上游
	ErrUnordered = errors.New("timeline: segments not ordered by start time")
	// ErrOverlap 同一通道出现时间重叠的片段，属于数据完整性错误
	ErrOverlap = errors.New("timeline: overlapping segments")
)

// Segment 一段已完成落盘的录像单元
type Segment struct {
	ID       int64
	Start    time.Time     // 录制开始的墙钟时间
	Duration time.Duration // 名义时长，调度与几何计算以此为准
	Locator  string        // 媒体定位符（相对文件名），由外部媒体服务解析
}

// End 片段结束时间（名义值，实际可播放长度可能略有出入）
func (s Segment) End() time.Time {
	return s.Start.Add(s.Duration)
}

// SegmentView 带归一化几何信息的片段视图
// 几何在服务端统一计算，保证各客户端渲染一致
type SegmentView struct {
	Segment
	OffsetFraction float64 // 相对 RangeStart 的归一化偏移 [0,1]
	WidthFraction  float64 // 归一化宽度，下限 MinVisibleFraction
}

// Gap 时间轴范围内无录像覆盖的区间
type Gap struct {
	Start time.Time
	End   time.Time
}

// Timeline 单通道、单时间窗的录像投影
// 仅对一次查询有效，目录可能被录制管线并发追加，不做跨查询缓存
type Timeline struct {
	RangeStart time.Time
	RangeEnd   time.Time
	Segments   []SegmentView
}

// Build 由目录切片构建时间轴
// 前置条件：调用方已按通道与日期过滤；空切片是合法的"无录像"结果
func Build(segments []Segment) (*Timeline, error) {
	if len(segments) == 0 {
		return &Timeline{}, nil
	}

	for i := 1; i < len(segments); i++ {
		if segments[i].Start.Before(segments[i-1].Start) {
			return nil, ErrUnordered
		}
		if segments[i].Start.Before(segments[i-1].End()) {
			return nil, ErrOverlap
		}
	}

	rangeStart := floorHour(segments[0].Start)
	rangeEnd := ceilHour(segments[len(segments)-1].End())
	total := rangeEnd.Sub(rangeStart).Seconds()

	views := make([]SegmentView, 0, len(segments))
	for _, seg := range segments {
		offset := seg.Start.Sub(rangeStart).Seconds() / total
		width := seg.Duration.Seconds() / total
		if width < MinVisibleFraction {
			width = MinVisibleFraction
		}
		views = append(views, SegmentView{
			Segment:        seg,
			OffsetFraction: offset,
			WidthFraction:  width,
		})
	}

	return &Timeline{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Segments:   views,
	}, nil
}

// IsEmpty 是否为"无录像"空时间轴
func (t *Timeline) IsEmpty() bool {
	return len(t.Segments) == 0
}

// Gaps 按需推导未覆盖区间，不做存储
// 目录持续追加新片段，存储间隙需要主动失效，按需计算则天然一致
func (t *Timeline) Gaps() []Gap {
	if t.IsEmpty() {
		return nil
	}

	gaps := make([]Gap, 0, 4)
	cursor := t.RangeStart
	for _, seg := range t.Segments {
		if seg.Start.After(cursor) {
			gaps = append(gaps, Gap{Start: cursor, End: seg.Start})
		}
		if end := seg.End(); end.After(cursor) {
			cursor = end
		}
	}
	if cursor.Before(t.RangeEnd) {
		gaps = append(gaps, Gap{Start: cursor, End: t.RangeEnd})
	}
	return gaps
}

// Duration 时间轴总跨度
func (t *Timeline) Duration() time.Duration {
	return t.RangeEnd.Sub(t.RangeStart)
}

// TimeAt 把轨道上的归一化位置换算为墙钟时间，越界位置先钳制
func (t *Timeline) TimeAt(fraction float64) time.Time {
	fraction = ClampFraction(fraction)
	return t.RangeStart.Add(time.Duration(fraction * float64(t.Duration())))
}

// ClampFraction 把归一化轨道位置钳制到 [0,1]
// 用户点击精度不是正确性问题，越界按最近边界处理
func ClampFraction(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// floorHour 按墙钟把时间向下取整到小时
func floorHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// ceilHour 向上取整到下一个小时边界，恰好在边界上则保持不变
// 保证小时刻度标签有意义，且最后一个片段不被裁切
func ceilHour(t time.Time) time.Time {
	if t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t
	}
	return floorHour(t).Add(time.Hour)
}
