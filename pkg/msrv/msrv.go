package msrv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// 媒体服务侧的稳定错误，调用方按需映射为业务语义
var (
	// ErrNotFound 片段文件在媒体服务上不存在（多为保留策略已删除）
	ErrNotFound = errors.New("msrv: media not found")
	// ErrForbidden 密钥校验失败
	ErrForbidden = errors.New("msrv: secret rejected")
	// ErrUnavailable 媒体服务暂时不可达
	ErrUnavailable = errors.New("msrv: service unavailable")
)

type Config struct {
	URL    string
	Secret string
}

type Engine struct {
	cfg Config
	cli *http.Client
}

func NewEngine() Engine {
	return Engine{
		cli: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        30,
				MaxIdleConnsPerHost: 30,
				MaxConnsPerHost:     100,
			},
		},
	}
}

func (e Engine) SetConfig(cfg Config) Engine {
	e.cfg = cfg
	return e
}

// fixedHeader 媒体服务所有接口的公共响应头
type fixedHeader struct {
	Code ResCode `json:"code"`
	Msg  string  `json:"msg"`
}

// post 发送 POST 请求到媒体服务 API
// 用法示例：e.post(ctx, "/api/path", map[string]any{"key": "value"}, &response)
func (e *Engine) post(ctx context.Context, path string, data map[string]any, out any) error {
	data["secret"] = e.cfg.Secret
	body, _ := json.Marshal(data)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.cli.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// get 发送 GET 请求到媒体服务 API
func (e *Engine) get(ctx context.Context, path string, out any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.URL+path, nil)
	resp, err := e.cli.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
