package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/gowvp/lynx/internal/core/timeline"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

// FindSegments 分页查询录像片段，支持通道与时间范围筛选
func (c Core) FindSegments(ctx context.Context, in *FindSegmentInput) ([]*Segment, int64, error) {
	query := orm.NewQuery(3).OrderBy("started_at DESC")
	if in.CameraID != "" {
		query.Where("camera_id = ?", in.CameraID)
	}
	if in.Day != "" {
		query.Where("day = ?", in.Day)
	}
	if in.StartMs > 0 && in.EndMs > 0 {
		// 与查询范围有重叠的片段
		query.Where("started_at < ? AND ended_at > ?", in.EndAt(), in.StartAt())
	}

	items := make([]*Segment, 0, in.Limit())
	total, err := c.store.Segment().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetSegment Query a single object
func (c Core) GetSegment(ctx context.Context, id int64) (*Segment, error) {
	out := Segment{ID: id}
	if err := c.store.Segment().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddSegment 录制管线封口回调写入片段
// 同通道时间重叠是目录完整性错误，拒绝写入而非静默合并
func (c Core) AddSegment(ctx context.Context, in *AddSegmentInput) (*Segment, error) {
	if in.Duration <= 0 {
		in.Duration = float64(c.SegmentSeconds())
	}
	if in.EndedAt.IsZero() {
		in.EndedAt = orm.Time{Time: in.StartedAt.Add(time.Duration(in.Duration * float64(time.Second)))}
	}

	count, err := c.store.Segment().Count(ctx,
		orm.Where("camera_id = ?", in.CameraID),
		orm.Where("started_at < ? AND ended_at > ?", in.EndedAt, in.StartedAt),
	)
	if err != nil {
		return nil, reason.ErrDB.Withf(`Count err[%s]`, err.Error())
	}
	if count > 0 {
		return nil, reason.ErrBadRequest.Withf(
			"segment overlaps existing recording: camera[%s] start[%s]",
			in.CameraID, in.StartedAt.Format(time.DateTime),
		)
	}

	var out Segment
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.Day = in.StartedAt.Format(dayLayout)

	if err := c.store.Segment().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// DelSegment Delete object
func (c Core) DelSegment(ctx context.Context, id int64) (*Segment, error) {
	var out Segment
	if err := c.store.Segment().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// DaySegments 取出某通道某天的目录切片，升序，供时间轴构建
// 每次读取都是目录的一个快照，录制管线可能并发追加最新片段，
// 查询"今天"时允许缺少尚未封口的片段
func (c Core) DaySegments(ctx context.Context, cameraID, day string) ([]timeline.Segment, error) {
	if cameraID == "" {
		return nil, reason.ErrBadRequest.Withf("camera_id is required")
	}
	if _, err := time.ParseInLocation(dayLayout, day, time.Local); err != nil {
		return nil, reason.ErrBadRequest.Withf("invalid date[%s]", day)
	}

	query := orm.NewQuery(2).OrderBy("started_at ASC")
	query.Where("camera_id = ?", cameraID)
	query.Where("day = ?", day)

	var items []*Segment
	pager := &defaultPager{limit: 2000}
	if _, err := c.store.Segment().Find(ctx, &items, pager, query.Encode()...); err != nil {
		return nil, reason.ErrDB.Withf(`DaySegments err[%s]`, err.Error())
	}

	out := make([]timeline.Segment, 0, len(items))
	for _, s := range items {
		out = append(out, timeline.Segment{
			ID:       s.ID,
			Start:    s.StartedAt.Time,
			Duration: time.Duration(s.Duration * float64(time.Second)),
			Locator:  s.Filename,
		})
	}
	return out, nil
}

// BuildTimeline 构建某通道某天的时间轴
// 空目录返回合法的空时间轴；乱序或重叠说明目录有缺陷，按系统错误上抛
func (c Core) BuildTimeline(ctx context.Context, in *TimelineInput) (*timeline.Timeline, error) {
	segments, err := c.DaySegments(ctx, in.CameraID, in.Day)
	if err != nil {
		return nil, err
	}

	tl, err := timeline.Build(segments)
	if err != nil {
		return nil, reason.ErrServer.Withf("catalog integrity: camera[%s] date[%s] err[%s]",
			in.CameraID, in.Day, err.Error())
	}
	return tl, nil
}

// AvailableDates 某通道有录像的日期列表，倒序
func (c Core) AvailableDates(ctx context.Context, cameraID string) ([]string, error) {
	if cameraID == "" {
		return nil, reason.ErrBadRequest.Withf("camera_id is required")
	}

	var days []string
	err := c.store.Segment().Session(ctx, func(db *gorm.DB) error {
		return db.Model(&Segment{}).
			Distinct("day").
			Where("camera_id = ?", cameraID).
			Order("day DESC").
			Pluck("day", &days).Error
	})
	if err != nil {
		return nil, reason.ErrDB.Withf(`AvailableDates err[%s]`, err.Error())
	}
	return days, nil
}

// cidCount 用于接收 GROUP BY 查询结果
type cidCount struct {
	CameraID string `gorm:"column:camera_id"`
	Count    int64  `gorm:"column:cnt"`
}

// HasRecordings 批量检查通道是否有录像
// 使用 WHERE IN + GROUP BY 一次性查询所有通道
func (c Core) HasRecordings(ctx context.Context, cameraIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(cameraIDs))
	if len(cameraIDs) == 0 {
		return result, nil
	}

	var counts []cidCount
	err := c.store.Segment().Session(ctx, func(db *gorm.DB) error {
		return db.Model(&Segment{}).
			Select("camera_id, COUNT(*) as cnt").
			Where("camera_id IN ?", cameraIDs).
			Group("camera_id").
			Find(&counts).Error
	})
	if err != nil {
		return result, err
	}

	for _, v := range counts {
		result[v.CameraID] = v.Count > 0
	}
	return result, nil
}

// GetMonthlyStats 获取月度录像统计
// 返回指定月份每天是否有录像的位图字符串
func (c Core) GetMonthlyStats(ctx context.Context, in *MonthlyStatsInput) (*MonthlyStatsOutput, error) {
	if in.Year <= 0 || in.Month < 1 || in.Month > 12 {
		return nil, reason.ErrBadRequest.Withf("invalid year or month")
	}

	firstDay := time.Date(in.Year, time.Month(in.Month), 1, 0, 0, 0, 0, time.Local)
	lastDay := firstDay.AddDate(0, 1, 0).Add(-time.Nanosecond)
	daysInMonth := lastDay.Day()

	query := orm.NewQuery(2)
	query.Where("started_at >= ? AND started_at <= ?", orm.Time{Time: firstDay}, orm.Time{Time: lastDay})
	if in.CameraID != "" {
		query.Where("camera_id = ?", in.CameraID)
	}

	var segments []*Segment
	pager := &defaultPager{limit: 10000}
	if _, err := c.store.Segment().Find(ctx, &segments, pager, query.Encode()...); err != nil {
		return nil, reason.ErrDB.Withf(`GetMonthlyStats err[%s]`, err.Error())
	}

	dayHasVideo := make([]bool, daysInMonth)
	for _, s := range segments {
		day := s.StartedAt.Day()
		if day >= 1 && day <= daysInMonth {
			dayHasVideo[day-1] = true
		}
	}

	bitmap := make([]byte, daysInMonth)
	for i, has := range dayHasVideo {
		if has {
			bitmap[i] = '1'
		} else {
			bitmap[i] = '0'
		}
	}

	return &MonthlyStatsOutput{
		Year:     in.Year,
		Month:    in.Month,
		Days:     daysInMonth,
		HasVideo: string(bitmap),
	}, nil
}

// defaultPager 内部使用的分页器，避免传入 nil 导致空指针
type defaultPager struct {
	limit int
}

func (p *defaultPager) Offset() int { return 0 }
func (p *defaultPager) Limit() int  { return p.limit }
