package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gowvp/lynx/internal/core/timeline"
)

// State 播放会话状态
type State string

const (
	StateStopped   State = "stopped"
	StatePlaying   State = "playing"
	StateSeeking   State = "seeking"
	StateExhausted State = "exhausted" // 时间轴播完，正常终态
	StateError     State = "error"
)

// 默认媒体错误重试退避，避免在坏片段上紧循环
const defaultRetryBackoff = time.Second

var (
	// ErrIndexOutOfRange 目标片段下标越界
	ErrIndexOutOfRange = errors.New("playback: segment index out of range")
	// ErrEmptyTimeline 空时间轴上无法启动播放
	ErrEmptyTimeline = errors.New("playback: timeline has no segments")
)

// MediaProvider 外部媒体服务，按定位符换取可播放地址
// 获取可能耗时，必须响应 ctx 取消
type MediaProvider interface {
	PlayURL(ctx context.Context, cameraID, locator string) (string, error)
}

// Cursor 会话游标快照，对外只读
type Cursor struct {
	SessionID   string `json:"session_id"`
	CameraID    string `json:"camera_id"`
	Index       int    `json:"index"` // -1 表示尚无目标片段
	State       State  `json:"state"`
	AutoAdvance bool   `json:"auto_advance"`
	MediaURL    string `json:"media_url"`
}

// Session 单观看端的播放状态机
//
// 事件（片段结束、seek、媒体错误）由互斥锁串行化，任一时刻只有一个
// 目标片段。generation 在每次目标切换时自增：滞留的自动推进事件、
// 在途的媒体获取回调、还未触发的退避重试，只要其出发时的代次不再
// 匹配就直接作废
type Session struct {
	id       string
	cameraID string
	tl       *timeline.Timeline
	media    MediaProvider
	backoff  time.Duration

	mu          sync.Mutex
	index       int
	state       State
	autoAdvance bool
	mediaURL    string
	generation  uint64
	retryTimer  *time.Timer
	cancelFetch context.CancelFunc
}

type SessionOption func(*Session)

// WithRetryBackoff 覆盖媒体错误重试退避，仅测试使用
func WithRetryBackoff(d time.Duration) SessionOption {
	return func(s *Session) {
		s.backoff = d
	}
}

// WithAutoAdvance 设置自动推进初始状态
func WithAutoAdvance(enabled bool) SessionOption {
	return func(s *Session) {
		s.autoAdvance = enabled
	}
}

func NewSession(id, cameraID string, tl *timeline.Timeline, media MediaProvider, opts ...SessionOption) *Session {
	s := Session{
		id:          id,
		cameraID:    cameraID,
		tl:          tl,
		media:       media,
		backoff:     defaultRetryBackoff,
		index:       -1,
		state:       StateStopped,
		autoAdvance: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &s
}

// Cursor 当前游标快照
func (s *Session) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Cursor{
		SessionID:   s.id,
		CameraID:    s.cameraID,
		Index:       s.index,
		State:       s.state,
		AutoAdvance: s.autoAdvance,
		MediaURL:    s.mediaURL,
	}
}

// SetAutoAdvance 切换自动推进
func (s *Session) SetAutoAdvance(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoAdvance = enabled
}

// Start 从指定片段的开头开始播放
// 向媒体服务请求播放地址；请求期间目标被 seek 改写时结果直接丢弃
func (s *Session) Start(ctx context.Context, index int) error {
	return s.start(ctx, index, 0, false)
}

// start 带代次校验的内部启动
// 自动推进与退避重试在锁外发起，持锁校验之后、真正改写目标之前，
// 可能有一次 seek 插队完成。guard 为真时传入出发时观察到的代次，
// 持锁后发现代次已前移就放弃本次切换，不得覆盖更新的目标
func (s *Session) start(ctx context.Context, index int, fromGen uint64, guard bool) error {
	s.mu.Lock()
	if guard && fromGen != s.generation {
		s.mu.Unlock()
		return nil
	}
	if s.tl.IsEmpty() {
		s.mu.Unlock()
		return ErrEmptyTimeline
	}
	if index < 0 || index >= len(s.tl.Segments) {
		s.mu.Unlock()
		return ErrIndexOutOfRange
	}

	gen := s.retargetLocked(index)
	s.state = StateSeeking
	seg := s.tl.Segments[index].Segment

	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	s.mu.Unlock()

	url, err := s.media.PlayURL(fetchCtx, s.cameraID, seg.Locator)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// 获取期间目标已变，本次结果作废
		return nil
	}
	if err != nil {
		s.mediaErrorLocked(index, err)
		return err
	}
	s.mediaURL = url
	s.state = StatePlaying
	return nil
}

// Seek 解析目标时间并跳转播放
// miss 时不改变任何状态，由调用方决定提示"该时间无录像"还是就近跳转
// 解析粒度为整段：命中片段总是从其开头重新播放
func (s *Session) Seek(ctx context.Context, target time.Time) (int, bool, error) {
	s.mu.Lock()
	index, ok := s.tl.Resolve(target)
	s.mu.Unlock()
	if !ok {
		return 0, false, nil
	}
	return index, true, s.Start(ctx, index)
}

// SeekNearest 就近跳转，语义与 Seek 相同但允许方向性最近匹配
func (s *Session) SeekNearest(ctx context.Context, target time.Time, dir timeline.Direction) (int, bool, error) {
	s.mu.Lock()
	index, ok := s.tl.ResolveNearest(target, dir)
	s.mu.Unlock()
	if !ok {
		return 0, false, nil
	}
	return index, true, s.Start(ctx, index)
}

// OnSegmentEnd 外部媒体层通知当前片段自然播完
// 事件携带发起时的片段下标；下标与当前目标不符说明事件已过期
//（例如 seek 抢先改写了目标），直接忽略
func (s *Session) OnSegmentEnd(index int) {
	s.mu.Lock()
	if s.state != StatePlaying || index != s.index {
		s.mu.Unlock()
		return
	}

	if s.autoAdvance {
		if next, ok := s.tl.NextIndex(s.index); ok {
			gen := s.generation
			s.mu.Unlock()
			if err := s.start(context.Background(), next, gen, true); err != nil {
				slog.Warn("auto advance failed", "session", s.id, "index", next, "err", err)
			}
			return
		}
	}
	s.state = StateExhausted
	s.mediaURL = ""
	s.mu.Unlock()
}

// OnMediaError 外部媒体层报告播放失败（文件被保留策略删除、临时不可用等）
func (s *Session) OnMediaError(index int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index != s.index {
		return
	}
	s.mediaErrorLocked(index, err)
}

// mediaErrorLocked 媒体错误处理，调用方需持锁
// 自动推进开启且还有后续片段时，退避一拍后跳过坏片段尝试下一个；
// 否则进入终态 error。退避用定时任务而非就地 sleep，seek 可随时作废它
func (s *Session) mediaErrorLocked(index int, err error) {
	slog.Warn("media fetch failed",
		"session", s.id, "camera_id", s.cameraID, "index", index, "err", err)

	next, ok := s.tl.NextIndex(index)
	if !s.autoAdvance || !ok {
		s.state = StateError
		s.mediaURL = ""
		return
	}

	s.state = StateError
	gen := s.generation
	s.retryTimer = time.AfterFunc(s.backoff, func() {
		if err := s.start(context.Background(), next, gen, true); err != nil {
			slog.Warn("skip retry failed", "session", s.id, "index", next, "err", err)
		}
	})
}

// Stop 显式停止播放
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retargetLocked(-1)
	s.state = StateStopped
	s.mediaURL = ""
}

// Close 会话结束时释放定时器与在途请求
func (s *Session) Close() {
	s.Stop()
}

// retargetLocked 切换目标片段：作废滞留事件、取消在途获取与未触发的重试
// 返回新代次，调用方需持锁
func (s *Session) retargetLocked(index int) uint64 {
	s.generation++
	s.index = index
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	return s.generation
}
