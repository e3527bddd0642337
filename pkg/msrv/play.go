package msrv

import "context"

const (
	playPath   = "/index/api/getRecordPlayUrl"
	existsPath = "/index/api/isRecordExist"
)

// PlayResponse 点播地址响应
type PlayResponse struct {
	fixedHeader
	Data struct {
		URL string `json:"url"` // 可直接播放的 HTTP 地址
	} `json:"data"`
}

// PlayURL 按片段定位符换取点播地址
// 定位符是片段在存储目录下的相对路径
func (e *Engine) PlayURL(ctx context.Context, cameraID, locator string) (string, error) {
	data := map[string]any{
		"camera_id": cameraID,
		"path":      locator,
	}

	var resp PlayResponse
	if err := e.post(ctx, playPath, data, &resp); err != nil {
		return "", err
	}
	if err := e.ErrHandle(resp.Code, resp.Msg); err != nil {
		return "", err
	}
	return resp.Data.URL, nil
}

// ExistsResponse 片段文件存在性响应
type ExistsResponse struct {
	fixedHeader
	Data struct {
		Exist bool `json:"exist"`
	} `json:"data"`
}

// RecordExists 查询片段文件是否仍在媒体服务上
func (e *Engine) RecordExists(ctx context.Context, cameraID, locator string) (bool, error) {
	data := map[string]any{
		"camera_id": cameraID,
		"path":      locator,
	}

	var resp ExistsResponse
	if err := e.post(ctx, existsPath, data, &resp); err != nil {
		return false, err
	}
	if err := e.ErrHandle(resp.Code, resp.Msg); err != nil {
		return false, err
	}
	return resp.Data.Exist, nil
}
