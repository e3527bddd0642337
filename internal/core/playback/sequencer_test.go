package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gowvp/lynx/internal/core/timeline"
)

type fakeMedia struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeMedia) PlayURL(_ context.Context, _, locator string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, locator)
	if err, ok := f.fail[locator]; ok {
		return "", err
	}
	return "http://media.local/" + locator, nil
}

func (f *fakeMedia) callCount(locator string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == locator {
			n++
		}
	}
	return n
}

func at(min int) time.Time {
	return time.Date(2025, 6, 15, 10, min, 0, 0, time.UTC)
}

// 10:00 10:05 10:15 三段各 300 秒，10:10-10:15 为空洞
func testTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl, err := timeline.Build([]timeline.Segment{
		{ID: 1, Start: at(0), Duration: 300 * time.Second, Locator: "seg-0"},
		{ID: 2, Start: at(5), Duration: 300 * time.Second, Locator: "seg-1"},
		{ID: 3, Start: at(15), Duration: 300 * time.Second, Locator: "seg-2"},
	})
	if err != nil {
		t.Fatalf("build timeline: %v", err)
	}
	return tl
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestAutoAdvance(t *testing.T) {
	media := &fakeMedia{}
	s := NewSession("s1", "cam1", testTimeline(t), media)
	if err := s.Start(context.Background(), 0); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.OnSegmentEnd(0)
	if c := s.Cursor(); c.Index != 1 || c.State != StatePlaying {
		t.Fatalf("after first end got index=%d state=%s", c.Index, c.State)
	}
	s.OnSegmentEnd(1)
	if c := s.Cursor(); c.Index != 2 || c.State != StatePlaying {
		t.Fatalf("after second end got index=%d state=%s", c.Index, c.State)
	}
	s.OnSegmentEnd(2)
	if c := s.Cursor(); c.State != StateExhausted {
		t.Fatalf("after last end got state=%s", c.State)
	}

	// 耗尽后的重复事件必须是空操作
	s.OnSegmentEnd(2)
	if c := s.Cursor(); c.State != StateExhausted || c.Index != 2 {
		t.Fatalf("duplicate end changed cursor: index=%d state=%s", c.Index, c.State)
	}
}

func TestStaleSegmentEndIgnored(t *testing.T) {
	media := &fakeMedia{}
	s := NewSession("s1", "cam1", testTimeline(t), media)
	if err := s.Start(context.Background(), 0); err != nil {
		t.Fatalf("start: %v", err)
	}

	index, ok, err := s.Seek(context.Background(), at(16))
	if err != nil || !ok || index != 2 {
		t.Fatalf("seek got index=%d ok=%v err=%v", index, ok, err)
	}

	// 第 0 段的滞留事件不得推进已跳转的游标
	s.OnSegmentEnd(0)
	if c := s.Cursor(); c.Index != 2 || c.State != StatePlaying {
		t.Fatalf("stale event moved cursor: index=%d state=%s", c.Index, c.State)
	}
}

func TestDelayedAdvanceDoesNotOverrideSeek(t *testing.T) {
	media := &fakeMedia{}
	s := NewSession("s1", "cam1", testTimeline(t), media)
	if err := s.Start(context.Background(), 0); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 自动推进在锁外发起切换，此处复现它持锁校验之后被 seek 插队的时序：
	// 记下第 0 段播完时的代次，先让 seek 完成，再补发滞留的推进
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	index, ok, err := s.Seek(context.Background(), at(16))
	if err != nil || !ok || index != 2 {
		t.Fatalf("seek got index=%d ok=%v err=%v", index, ok, err)
	}

	if err := s.start(context.Background(), 1, gen, true); err != nil {
		t.Fatalf("stale advance returned error: %v", err)
	}
	if c := s.Cursor(); c.Index != 2 || c.State != StatePlaying {
		t.Fatalf("stale advance overrode seek: index=%d state=%s", c.Index, c.State)
	}
	if n := media.callCount("seg-1"); n != 0 {
		t.Fatalf("stale advance fetched seg-1 %d times", n)
	}
}

func TestSeekMiss(t *testing.T) {
	media := &fakeMedia{}
	s := NewSession("s1", "cam1", testTimeline(t), media)
	if err := s.Start(context.Background(), 0); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 10:12 落在空洞里
	_, ok, err := s.Seek(context.Background(), at(12))
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if ok {
		t.Fatal("expected miss in gap")
	}
	if c := s.Cursor(); c.Index != 0 || c.State != StatePlaying {
		t.Fatalf("miss changed cursor: index=%d state=%s", c.Index, c.State)
	}
}

func TestSeekNearest(t *testing.T) {
	media := &fakeMedia{}
	s := NewSession("s1", "cam1", testTimeline(t), media)

	index, ok, err := s.SeekNearest(context.Background(), at(12), timeline.DirectionForward)
	if err != nil || !ok || index != 2 {
		t.Fatalf("got index=%d ok=%v err=%v", index, ok, err)
	}
}

func TestMediaErrorSkipsToNext(t *testing.T) {
	media := &fakeMedia{fail: map[string]error{"seg-1": errors.New("file removed")}}
	s := NewSession("s1", "cam1", testTimeline(t), media, WithRetryBackoff(time.Millisecond))

	if err := s.Start(context.Background(), 1); err == nil {
		t.Fatal("expected media error")
	}
	waitFor(t, func() bool {
		c := s.Cursor()
		return c.Index == 2 && c.State == StatePlaying
	})
}

func TestMediaErrorLastSegment(t *testing.T) {
	media := &fakeMedia{fail: map[string]error{"seg-2": errors.New("file removed")}}
	s := NewSession("s1", "cam1", testTimeline(t), media, WithRetryBackoff(time.Millisecond))

	if err := s.Start(context.Background(), 2); err == nil {
		t.Fatal("expected media error")
	}
	if c := s.Cursor(); c.State != StateError {
		t.Fatalf("got state=%s", c.State)
	}
}

func TestSeekCancelsPendingRetry(t *testing.T) {
	media := &fakeMedia{fail: map[string]error{"seg-0": errors.New("file removed")}}
	s := NewSession("s1", "cam1", testTimeline(t), media, WithRetryBackoff(50*time.Millisecond))

	if err := s.Start(context.Background(), 0); err == nil {
		t.Fatal("expected media error")
	}

	// 退避触发前跳走，重试必须作废
	index, ok, err := s.Seek(context.Background(), at(16))
	if err != nil || !ok || index != 2 {
		t.Fatalf("seek got index=%d ok=%v err=%v", index, ok, err)
	}
	time.Sleep(120 * time.Millisecond)
	if c := s.Cursor(); c.Index != 2 || c.State != StatePlaying {
		t.Fatalf("cancelled retry fired: index=%d state=%s", c.Index, c.State)
	}
	if n := media.callCount("seg-1"); n != 0 {
		t.Fatalf("retry fetched seg-1 %d times after seek", n)
	}
}

func TestStaleMediaErrorIgnored(t *testing.T) {
	media := &fakeMedia{}
	s := NewSession("s1", "cam1", testTimeline(t), media)
	if err := s.Start(context.Background(), 2); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.OnMediaError(0, errors.New("late failure"))
	if c := s.Cursor(); c.Index != 2 || c.State != StatePlaying {
		t.Fatalf("stale error changed cursor: index=%d state=%s", c.Index, c.State)
	}
}

func TestStartOutOfRange(t *testing.T) {
	s := NewSession("s1", "cam1", testTimeline(t), &fakeMedia{})
	if err := s.Start(context.Background(), 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("got %v", err)
	}
	if err := s.Start(context.Background(), -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("got %v", err)
	}
}

func TestStartEmptyTimeline(t *testing.T) {
	tl, err := timeline.Build(nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := NewSession("s1", "cam1", tl, &fakeMedia{})
	if err := s.Start(context.Background(), 0); !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("got %v", err)
	}
}

func TestStopClearsCursor(t *testing.T) {
	s := NewSession("s1", "cam1", testTimeline(t), &fakeMedia{})
	if err := s.Start(context.Background(), 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
	if c := s.Cursor(); c.State != StateStopped || c.MediaURL != "" {
		t.Fatalf("got state=%s url=%q", c.State, c.MediaURL)
	}

	// 停止后的滞留事件同样忽略
	s.OnSegmentEnd(0)
	if c := s.Cursor(); c.State != StateStopped {
		t.Fatalf("got state=%s", c.State)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(&fakeMedia{})
	s := m.Create("cam1", testTimeline(t))
	if s.Cursor().SessionID == "" {
		t.Fatal("expected generated session id")
	}
	got, ok := m.Get(s.Cursor().SessionID)
	if !ok || got != s {
		t.Fatal("lookup failed")
	}
	m.Remove(s.Cursor().SessionID)
	if _, ok := m.Get(s.Cursor().SessionID); ok {
		t.Fatal("session not removed")
	}
	if m.Len() != 0 {
		t.Fatalf("len=%d", m.Len())
	}
}
