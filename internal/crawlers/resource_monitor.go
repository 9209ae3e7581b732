package crawlers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// 内存压力等级
const (
	PressureNormal    = "normal"
	PressureWarning   = "warning"
	PressureCritical  = "critical"
	PressureEmergency = "emergency"
)

// ResourceMonitor 系统资源监控器
// 职责: 采样系统可用内存和CPU, 估算可同时运行的浏览器数量
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// readMemory 读取系统内存, 测试中可替换
	readMemory func() (total, available uint64, err error)

	mu           sync.RWMutex
	last         MemoryStatus
	lastPressure string

	cancelFunc context.CancelFunc
	done       chan struct{}
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 给系统保留的内存(字节)
	BrowserMemoryUsage  int64 // 单个浏览器进程平均内存消耗(字节)
	CPULoadThreshold    int   // CPU负载告警阈值(%)
	MaxWorkersLimit     int   // worker绝对上限, 0表示不限制
}

// MemoryStatus 一次采样的资源状态
type MemoryStatus struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 系统可用内存(字节)
	UsableMemory    int64   // 扣除保留内存后可供浏览器使用的内存(字节)
	CPUPercent      float64 // 系统CPU使用率
	MemoryPressure  string  // 内存压力等级
}

// NewResourceMonitor 创建资源监控器并立即采样一次
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.BrowserMemoryUsage <= 0 {
		config.BrowserMemoryUsage = 300 * 1024 * 1024
	}
	if config.CPULoadThreshold <= 0 {
		config.CPULoadThreshold = 90
	}

	rm := &ResourceMonitor{
		config:     config,
		readMemory: virtualMemory,
	}
	rm.Sample()
	return rm
}

func virtualMemory() (uint64, uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Total, vm.Available, nil
}

// Sample 采样当前内存状态(不含CPU)
func (rm *ResourceMonitor) Sample() MemoryStatus {
	total, available, err := rm.readMemory()
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,使用默认值")
		total = 4 * 1024 * 1024 * 1024
		available = total / 2
	}

	usable := int64(available) - rm.config.SafetyReserveMemory
	status := MemoryStatus{
		TotalMemory:     total,
		AvailableMemory: available,
		UsableMemory:    usable,
		MemoryPressure:  pressureLevel(usable),
	}

	rm.mu.Lock()
	status.CPUPercent = rm.last.CPUPercent
	rm.last = status
	rm.mu.Unlock()
	return status
}

// Status 返回最近一次采样结果
func (rm *ResourceMonitor) Status() MemoryStatus {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.last
}

// RecommendWorkers 在 requested 的基础上按可用内存限制worker数量, 至少为1
func (rm *ResourceMonitor) RecommendWorkers(requested int) int {
	status := rm.Status()

	result := requested
	byMemory := int(status.UsableMemory / rm.config.BrowserMemoryUsage)
	if byMemory < result {
		result = byMemory
	}
	if rm.config.MaxWorkersLimit > 0 && rm.config.MaxWorkersLimit < result {
		result = rm.config.MaxWorkersLimit
	}
	if result < 1 {
		result = 1
	}
	return result
}

// StartMonitoring 后台周期采样, 内存压力或CPU负载升高时记录告警
func (rm *ResourceMonitor) StartMonitoring(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.cancelFunc != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancelFunc = cancel
	rm.done = make(chan struct{})
	go rm.monitoringLoop(ctx, interval, rm.done)
}

func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := rm.Sample()
			cpuUsage := sampleCPU()

			rm.mu.Lock()
			rm.last.CPUPercent = cpuUsage
			changed := status.MemoryPressure != rm.lastPressure
			rm.lastPressure = status.MemoryPressure
			rm.mu.Unlock()

			if changed && status.MemoryPressure != PressureNormal {
				log.Warn().
					Str("pressure", status.MemoryPressure).
					Int64("usable_mb", status.UsableMemory/(1024*1024)).
					Msg("系统可用内存不足,浏览器可能变慢或崩溃")
			}
			if cpuUsage > float64(rm.config.CPULoadThreshold) {
				log.Warn().Msgf("CPU负载过高(当前%.1f%%)", cpuUsage)
			}
		}
	}
}

// StopMonitoring 停止后台采样并等待其退出
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	cancel, done := rm.cancelFunc, rm.done
	rm.cancelFunc, rm.done = nil, nil
	rm.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// sampleCPU 100毫秒采样窗口内的平均CPU使用率
func sampleCPU() float64 {
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		log.Warn().Err(err).Msg("获取CPU使用率失败")
		return 0
	}
	return percentages[0]
}

func pressureLevel(usable int64) string {
	usableMB := usable / (1024 * 1024)
	switch {
	case usableMB < 200:
		return PressureEmergency
	case usableMB < 300:
		return PressureCritical
	case usableMB < 500:
		return PressureWarning
	default:
		return PressureNormal
	}
}
