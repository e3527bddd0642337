package ota

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ixugo/goddd/pkg/system"
)

const (
	releaseAPI  = `https://api.github.com/repos/%s/releases/latest`
	assetPath   = `releases/latest/download`
	packageName = "upgrade.tar.gz"
)

// ReleaseInfo GitHub Release 信息
type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	Body    string `json:"body"`
}

// OTA 升级包下载器
// 只负责把升级包下载落盘，解压与替换由重启流程处理
type OTA struct {
	repoName   string
	filename   string
	err        error
	onProgress func(current, total int64)
}

// NewOTA 创建 OTA 实例
// repoName 支持 "gowvp/lynx" 与 "github.com/gowvp/lynx" 两种写法
func NewOTA(repoName, filename string) *OTA {
	return &OTA{
		repoName: cleanRepoName(repoName),
		filename: filename,
	}
}

// SetProgressCallback 设置下载进度回调
func (o *OTA) SetProgressCallback(callback func(current, total int64)) *OTA {
	o.onProgress = callback
	return o
}

// GetLastVersion 从 GitHub API 获取最新版本信息
func (o *OTA) GetLastVersion() (string, string, error) {
	return GetLastVersion(o.repoName)
}

// Download 把最新 release 的升级包下载到工作目录
func (o *OTA) Download() *OTA {
	if o.err != nil {
		return o
	}
	link, err := url.JoinPath("https://github.com/"+o.repoName, assetPath, o.filename)
	if err != nil {
		o.err = err
		return o
	}
	o.err = downloadTo(link, filepath.Join(system.Getwd(), packageName), o.onProgress)
	return o
}

// Error 返回链式调用中发生的第一个错误
func (o *OTA) Error() error {
	return o.err
}

// downloadTo 下载 link 到 dest，覆盖旧文件
func downloadTo(link, dest string, onProgress func(current, total int64)) error {
	resp, err := http.Get(link)
	if err != nil {
		return fmt.Errorf("下载请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载失败，状态码: %d", resp.StatusCode)
	}

	_ = os.Remove(dest)
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	defer f.Close()

	p := NewProgressReader(resp.ContentLength, resp.Body, onProgress)
	defer p.Close()

	_, err = io.Copy(f, p)
	return err
}

// cleanRepoName 归一化仓库名，去掉协议与域名前缀
func cleanRepoName(repoName string) string {
	repoName = strings.TrimPrefix(repoName, "https://")
	repoName = strings.TrimPrefix(repoName, "http://")
	repoName = strings.TrimPrefix(repoName, "github.com/")
	repoName = strings.TrimPrefix(repoName, "api.github.com/repos/")
	return repoName
}

// GetLastVersion 从 GitHub API 获取最新版本信息
// 返回 tag_name, body(release notes), error
func GetLastVersion(repoName string) (string, string, error) {
	apiURL := fmt.Sprintf(releaseAPI, cleanRepoName(repoName))

	client := http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("请求失败，状态码: %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", fmt.Errorf("解析响应失败: %w", err)
	}
	return release.TagName, release.Body, nil
}
