package ota

import (
	"io"
	"time"
)

// 进度回调节流间隔，下载大文件时避免每次 Read 都触发一次 SSE
const reportInterval = 100 * time.Millisecond

// ProgressReader 包装下载流，周期性上报已读字节数
// 非并发安全，仅供单个下载协程使用
type ProgressReader struct {
	total      int64
	current    int64
	reader     io.Reader
	onProgress func(current, total int64)
	lastReport time.Time
}

func NewProgressReader(total int64, reader io.Reader, onProgress func(current, total int64)) *ProgressReader {
	return &ProgressReader{
		total:      total,
		reader:     reader,
		onProgress: onProgress,
	}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	p.current += int64(n)
	if p.onProgress != nil && (err != nil || time.Since(p.lastReport) >= reportInterval) {
		p.onProgress(p.current, p.total)
		p.lastReport = time.Now()
	}
	return n, err
}

// Close 收尾上报一次最终进度
func (p *ProgressReader) Close() {
	if p.onProgress != nil {
		p.onProgress(p.current, p.total)
	}
}
