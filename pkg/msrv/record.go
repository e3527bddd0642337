package msrv

import "context"

const (
	startRecordPath = "/index/api/startRecord"
	stopRecordPath  = "/index/api/stopRecord"
)

// StartRecordRequest 开始录制请求参数
type StartRecordRequest struct {
	CameraID       string `json:"camera_id"`
	SourceURL      string `json:"source_url"`                // 拉流地址（RTSP）
	SegmentSeconds int    `json:"segment_seconds,omitempty"` // 切片时长，置 0 用服务端默认值
}

// StartRecordResponse 开始录制响应
type StartRecordResponse struct {
	fixedHeader
	Result bool `json:"result"` // 是否成功
}

// StopRecordResponse 停止录制响应
type StopRecordResponse struct {
	fixedHeader
	Result bool `json:"result"` // 是否成功
}

// StartRecord 开始录制，触发媒体服务对指定通道进行 MP4 切片录制
func (e *Engine) StartRecord(ctx context.Context, req StartRecordRequest) (*StartRecordResponse, error) {
	data := map[string]any{
		"camera_id":  req.CameraID,
		"source_url": req.SourceURL,
	}
	if req.SegmentSeconds > 0 {
		data["segment_seconds"] = req.SegmentSeconds
	}

	var resp StartRecordResponse
	if err := e.post(ctx, startRecordPath, data, &resp); err != nil {
		return nil, err
	}
	if err := e.ErrHandle(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopRecord 停止录制
func (e *Engine) StopRecord(ctx context.Context, cameraID string) (*StopRecordResponse, error) {
	data := map[string]any{
		"camera_id": cameraID,
	}

	var resp StopRecordResponse
	if err := e.post(ctx, stopRecordPath, data, &resp); err != nil {
		return nil, err
	}
	if err := e.ErrHandle(resp.Code, resp.Msg); err != nil {
		return nil, err
	}
	return &resp, nil
}
