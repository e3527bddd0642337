package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/gowvp/lynx/internal/core/playback"
	"github.com/gowvp/lynx/internal/core/timeline"
	"github.com/gowvp/lynx/pkg/msrv"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// PlaybackAPI 为 http 提供回放会话业务方法
// 会话状态在服务端，多个观看端互不干扰
type PlaybackAPI struct {
	catalogCore catalog.Core
	manager     *playback.Manager
}

func NewPlaybackAPI(core catalog.Core, manager *playback.Manager) PlaybackAPI {
	return PlaybackAPI{catalogCore: core, manager: manager}
}

func RegisterPlayback(g gin.IRouter, api PlaybackAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/playback/sessions", handler...)
	group.POST("", web.WrapH(api.createSession))
	group.GET("/:id", web.WrapH(api.getSession))
	group.DELETE("/:id", web.WrapH(api.closeSession))
	group.POST("/:id/start", web.WrapH(api.startSession))
	group.POST("/:id/stop", web.WrapH(api.stopSession))
	group.POST("/:id/seek", web.WrapH(api.seekSession))
	group.POST("/:id/auto-advance", web.WrapH(api.setAutoAdvance))
	group.POST("/:id/events", web.WrapH(api.pushEvent))
}

type createSessionInput struct {
	CameraID    string `json:"camera_id" binding:"required"`
	Day         string `json:"date" binding:"required"` // YYYY-MM-DD
	AutoAdvance *bool  `json:"auto_advance"`
}

// createSession 为某通道某天的时间轴新建回放会话
func (a PlaybackAPI) createSession(c *gin.Context, in *createSessionInput) (*playback.Cursor, error) {
	tl, err := a.catalogCore.BuildTimeline(c.Request.Context(), &catalog.TimelineInput{
		CameraID: in.CameraID,
		Day:      in.Day,
	})
	if err != nil {
		return nil, err
	}

	opts := make([]playback.SessionOption, 0, 1)
	if in.AutoAdvance != nil {
		opts = append(opts, playback.WithAutoAdvance(*in.AutoAdvance))
	}
	s := a.manager.Create(in.CameraID, tl, opts...)
	cursor := s.Cursor()
	return &cursor, nil
}

func (a PlaybackAPI) getSession(c *gin.Context, _ *struct{}) (*playback.Cursor, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	cursor := s.Cursor()
	return &cursor, nil
}

func (a PlaybackAPI) closeSession(c *gin.Context, _ *struct{}) (gin.H, error) {
	if _, err := a.session(c); err != nil {
		return nil, err
	}
	a.manager.Remove(c.Param("id"))
	return gin.H{"msg": "ok"}, nil
}

type startSessionInput struct {
	Index int `json:"index"`
}

// startSession 从指定片段的开头开始播放
func (a PlaybackAPI) startSession(c *gin.Context, in *startSessionInput) (*playback.Cursor, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	if err := s.Start(c.Request.Context(), in.Index); err != nil {
		return nil, playbackError(err)
	}
	cursor := s.Cursor()
	return &cursor, nil
}

func (a PlaybackAPI) stopSession(c *gin.Context, _ *struct{}) (*playback.Cursor, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	s.Stop()
	cursor := s.Cursor()
	return &cursor, nil
}

type seekSessionInput struct {
	TsMs      int64  `json:"ts_ms" binding:"required"`
	Direction string `json:"direction"` // 空为严格命中；forward/backward/either 为最近匹配
}

type seekSessionOutput struct {
	Miss   bool             `json:"miss"`
	Index  int              `json:"index,omitempty"`
	Cursor *playback.Cursor `json:"cursor,omitempty"`
}

// seekSession 解析目标时间并跳转播放
// 落在空洞里返回 miss=true 且会话状态不变，不视作错误
func (a PlaybackAPI) seekSession(c *gin.Context, in *seekSessionInput) (*seekSessionOutput, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}

	target := time.UnixMilli(in.TsMs)
	var (
		index int
		ok    bool
	)
	switch in.Direction {
	case "":
		index, ok, err = s.Seek(c.Request.Context(), target)
	case "forward":
		index, ok, err = s.SeekNearest(c.Request.Context(), target, timeline.DirectionForward)
	case "backward":
		index, ok, err = s.SeekNearest(c.Request.Context(), target, timeline.DirectionBackward)
	case "either":
		index, ok, err = s.SeekNearest(c.Request.Context(), target, timeline.DirectionEither)
	default:
		return nil, reason.ErrBadRequest.Withf("direction[%s] 不支持", in.Direction)
	}
	if err != nil {
		return nil, playbackError(err)
	}
	if !ok {
		return &seekSessionOutput{Miss: true}, nil
	}

	cursor := s.Cursor()
	return &seekSessionOutput{Index: index, Cursor: &cursor}, nil
}

type setAutoAdvanceInput struct {
	Enabled bool `json:"enabled"`
}

func (a PlaybackAPI) setAutoAdvance(c *gin.Context, in *setAutoAdvanceInput) (*playback.Cursor, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}
	s.SetAutoAdvance(in.Enabled)
	cursor := s.Cursor()
	return &cursor, nil
}

type pushEventInput struct {
	Type    string `json:"type" binding:"required"` // segment_end / media_error
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// pushEvent 播放器上报事件
// 事件携带发起时的片段下标，服务端据此丢弃过期事件
func (a PlaybackAPI) pushEvent(c *gin.Context, in *pushEventInput) (*playback.Cursor, error) {
	s, err := a.session(c)
	if err != nil {
		return nil, err
	}

	switch in.Type {
	case "segment_end":
		s.OnSegmentEnd(in.Index)
	case "media_error":
		s.OnMediaError(in.Index, errors.New(in.Message))
	default:
		return nil, reason.ErrBadRequest.Withf("event type[%s] 不支持", in.Type)
	}
	cursor := s.Cursor()
	return &cursor, nil
}

func (a PlaybackAPI) session(c *gin.Context) (*playback.Session, error) {
	s, ok := a.manager.Get(c.Param("id"))
	if !ok {
		return nil, reason.ErrNotFound.Withf("session[%s] 不存在", c.Param("id"))
	}
	return s, nil
}

// playbackError 把回放与媒体服务错误折算为业务错误
func playbackError(err error) error {
	switch {
	case errors.Is(err, playback.ErrIndexOutOfRange), errors.Is(err, playback.ErrEmptyTimeline):
		return reason.ErrBadRequest.SetMsg(err.Error())
	case errors.Is(err, msrv.ErrNotFound):
		return reason.ErrNotFound.SetMsg("录像文件不存在，可能已被保留策略清理")
	case errors.Is(err, msrv.ErrForbidden):
		return reason.ErrServer.SetMsg("媒体服务密钥校验失败")
	case errors.Is(err, msrv.ErrUnavailable):
		return reason.ErrServer.SetMsg("媒体服务暂时不可用，请稍后重试")
	}
	return err
}
