package timeline

import "time"

// Progress 推算"当前正在写入的片段已录了多久"，用于直播画面的录制进度叠层
//
// elapsed = (now - anchor) mod nominal，anchor 通常取 Unix 纪元
// 该算法假定所有通道的切片边界与共享纪元相位对齐，而非各通道真实的
// 片段开始时间（客户端拿不到）。这是刻意的视觉近似而非真值，与真实
// 边界的偏差最多一个刷新周期，不要在未确认需求前"修复"它
func Progress(now time.Time, nominal time.Duration, anchor time.Time) (time.Duration, float64) {
	if nominal <= 0 {
		return 0, 0
	}

	elapsed := now.Sub(anchor) % nominal
	if elapsed < 0 {
		elapsed += nominal
	}
	return elapsed, float64(elapsed) / float64(nominal)
}
