package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// stubSegmentStore 内存片段存储，Session 成功时移除本批记录，
// 失败时保持原样，模拟数据库删除反复失败的场景
type stubSegmentStore struct {
	batch      []*Segment
	findCalls  int
	sessionErr error
}

func (s *stubSegmentStore) Find(_ context.Context, out *[]*Segment, _ orm.Pager, _ ...orm.QueryOption) (int64, error) {
	s.findCalls++
	*out = append((*out)[:0], s.batch...)
	return int64(len(s.batch)), nil
}

func (s *stubSegmentStore) Get(context.Context, *Segment, ...orm.QueryOption) error { return nil }
func (s *stubSegmentStore) Add(context.Context, *Segment) error                     { return nil }
func (s *stubSegmentStore) Del(context.Context, *Segment, ...orm.QueryOption) error { return nil }
func (s *stubSegmentStore) Count(context.Context, ...orm.QueryOption) (int64, error) {
	return int64(len(s.batch)), nil
}

func (s *stubSegmentStore) Session(context.Context, ...func(*gorm.DB) error) error {
	if s.sessionErr != nil {
		return s.sessionErr
	}
	s.batch = nil
	return nil
}

type stubStore struct {
	seg *stubSegmentStore
}

func (s stubStore) Camera() CameraStorer   { return nil }
func (s stubStore) Segment() SegmentStorer { return s.seg }

func testSegments(n int) []*Segment {
	out := make([]*Segment, 0, n)
	start := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	for i := range n {
		out = append(out, &Segment{
			ID:        int64(i + 1),
			CameraID:  "cam1",
			Path:      "cam1/20250615/missing.mp4",
			Size:      1024,
			StartedAt: orm.Time{Time: start.Add(time.Duration(i) * 5 * time.Minute)},
		})
	}
	return out
}

func TestBatchDeleteSegments(t *testing.T) {
	seg := &stubSegmentStore{batch: testSegments(3)}
	c := NewCore(stubStore{seg: seg}, uniqueid.Core{})

	totalDeleted, _, failedFiles, _ := c.batchDeleteSegments(context.Background())
	if totalDeleted != 3 {
		t.Fatalf("totalDeleted = %d, want 3", totalDeleted)
	}
	// 文件已不存在时按已删除处理，不计失败
	if failedFiles != 0 {
		t.Fatalf("failedFiles = %d, want 0", failedFiles)
	}
	if len(seg.batch) != 0 {
		t.Fatalf("store still holds %d segments", len(seg.batch))
	}
}

func TestBatchDeleteSegmentsStuckRows(t *testing.T) {
	// 记录删除持续失败时 Find 每轮都会捞回同一批，必须放弃本轮而非死循环
	seg := &stubSegmentStore{
		batch:      testSegments(3),
		sessionErr: errors.New("database is locked"),
	}
	c := NewCore(stubStore{seg: seg}, uniqueid.Core{})

	done := make(chan struct{})
	var totalDeleted int
	go func() {
		totalDeleted, _, _, _ = c.batchDeleteSegments(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch delete did not terminate with failing row deletes")
	}
	if totalDeleted != 0 {
		t.Fatalf("totalDeleted = %d, want 0", totalDeleted)
	}
	if seg.findCalls != 1 {
		t.Fatalf("findCalls = %d, want 1", seg.findCalls)
	}
}
