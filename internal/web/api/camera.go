package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/gowvp/lynx/pkg/msrv"
	"github.com/ixugo/goddd/pkg/web"
)

// CameraAPI 为 http 提供摄像头管理业务方法
type CameraAPI struct {
	catalogCore catalog.Core
	media       msrv.Engine
}

func NewCameraAPI(core catalog.Core, media msrv.Engine) CameraAPI {
	return CameraAPI{catalogCore: core, media: media}
}

func RegisterCamera(g gin.IRouter, api CameraAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/cameras", handler...)
	group.GET("", web.WrapH(api.findCameras))
	group.POST("", web.WrapH(api.addCamera))
	group.GET("/:id", web.WrapH(api.getCamera))
	group.PUT("/:id", web.WrapH(api.editCamera))
	group.DELETE("/:id", web.WrapH(api.delCamera))
	group.POST("/:id/streaming", web.WrapH(api.setStreaming))
	group.POST("/:id/recording", web.WrapH(api.setRecording))
}

// findCameras 分页查询摄像头列表
// 每个摄像头附带是否存在历史录像，前端据此决定入口灰显
func (a CameraAPI) findCameras(c *gin.Context, in *catalog.FindCameraInput) (any, error) {
	items, total, err := a.catalogCore.FindCameras(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	recorded, err := a.catalogCore.HasRecordings(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}

	type cameraItem struct {
		*catalog.Camera
		HasRecordings bool `json:"has_recordings"`
	}
	out := make([]cameraItem, 0, len(items))
	for _, item := range items {
		out = append(out, cameraItem{Camera: item, HasRecordings: recorded[item.ID]})
	}
	return gin.H{"items": out, "total": total}, nil
}

func (a CameraAPI) getCamera(c *gin.Context, _ *struct{}) (*catalog.Camera, error) {
	return a.catalogCore.GetCamera(c.Request.Context(), c.Param("id"))
}

func (a CameraAPI) addCamera(c *gin.Context, in *catalog.AddCameraInput) (*catalog.Camera, error) {
	return a.catalogCore.AddCamera(c.Request.Context(), in)
}

func (a CameraAPI) editCamera(c *gin.Context, in *catalog.EditCameraInput) (*catalog.Camera, error) {
	return a.catalogCore.EditCamera(c.Request.Context(), in, c.Param("id"))
}

func (a CameraAPI) delCamera(c *gin.Context, _ *struct{}) (*catalog.Camera, error) {
	return a.catalogCore.DelCamera(c.Request.Context(), c.Param("id"))
}

type toggleInput struct {
	Enabled bool `json:"enabled"`
}

func (a CameraAPI) setStreaming(c *gin.Context, in *toggleInput) (*catalog.Camera, error) {
	return a.catalogCore.SetStreaming(c.Request.Context(), c.Param("id"), in.Enabled)
}

// setRecording 切换录制开关并通知媒体服务
// 通知失败只告警，录制管线自身会按注册表状态对账
func (a CameraAPI) setRecording(c *gin.Context, in *toggleInput) (*catalog.Camera, error) {
	camera, err := a.catalogCore.SetRecording(c.Request.Context(), c.Param("id"), in.Enabled)
	if err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	if in.Enabled {
		_, err = a.media.StartRecord(ctx, msrv.StartRecordRequest{
			CameraID:       camera.ID,
			SourceURL:      camera.RTSPUrl,
			SegmentSeconds: a.catalogCore.SegmentSeconds(),
		})
	} else {
		_, err = a.media.StopRecord(ctx, camera.ID)
	}
	if err != nil {
		slog.WarnContext(ctx, "notify media server failed", "camera_id", camera.ID, "enabled", in.Enabled, "err", err)
	}
	return camera, nil
}
