package api

import (
	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

type getStatsOutput struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemTotal    uint64  `json:"mem_total"`
	MemUsed     uint64  `json:"mem_used"`
	MemPercent  float64 `json:"mem_percent"`
	DiskTotal   uint64  `json:"disk_total"`
	DiskUsed    uint64  `json:"disk_used"`
	DiskPercent float64 `json:"disk_percent"`
}

// getStats 主机资源概览，供前端仪表盘轮询
func (uc *Usecase) getStats(_ *gin.Context, _ *struct{}) (*getStatsOutput, error) {
	var out getStatsOutput

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		out.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out.MemTotal = vm.Total
		out.MemUsed = vm.Used
		out.MemPercent = vm.UsedPercent
	}

	// 磁盘统计针对录像存储目录所在分区
	dir := uc.Conf.Server.Recording.StorageDir
	if dir == "" {
		dir = system.Getwd()
	}
	usage, err := disk.Usage(dir)
	if err != nil {
		return nil, reason.ErrServer.Withf("disk usage err[%s]", err)
	}
	out.DiskTotal = usage.Total
	out.DiskUsed = usage.Used
	out.DiskPercent = usage.UsedPercent
	return &out, nil
}
