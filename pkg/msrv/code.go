package msrv

import "fmt"

type ResCode int64

const (
	CodeSuccess      ResCode = 0
	CodeInvalidParam ResCode = -100
	CodeAuthFailed   ResCode = -300
	CodeNotFound     ResCode = -500
	CodeServerBusy   ResCode = -600
)

var codeMsgMap = map[ResCode]string{
	CodeSuccess:      "success",
	CodeInvalidParam: "请求参数错误",
	CodeAuthFailed:   "密钥校验失败",
	CodeNotFound:     "媒体文件不存在",
	CodeServerBusy:   "服务繁忙",
}

// ErrHandle 将媒体服务响应码折算为稳定错误
func (e *Engine) ErrHandle(code ResCode, msg string) error {
	switch code {
	case CodeSuccess:
		return nil
	case CodeAuthFailed:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case CodeNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case CodeServerBusy:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	if known, ok := codeMsgMap[code]; ok && msg == "" {
		msg = known
	}
	return fmt.Errorf("msrv: code %d: %s", code, msg)
}
