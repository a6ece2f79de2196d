package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats - срез состояния процесса для /api/server
type ProcessStats struct {
	Uptime     string  `json:"uptime"`
	HeapMB     float64 `json:"heap_mb"`
	RSSMB      float64 `json:"rss_mb,omitempty"`
	SysMB      float64 `json:"sys_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	NumGC      uint32  `json:"num_gc"`
	Goroutines int     `json:"goroutines"`
}

// ServerMetrics читает метрики процесса через gopsutil
type ServerMetrics struct {
	startTime time.Time
	proc      *process.Process
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &ServerMetrics{startTime: time.Now(), proc: proc}
}

// Uptime возвращает время работы сервера в виде "1д 2ч 3м 4с"
func (sm *ServerMetrics) Uptime() string {
	return formatUptime(time.Since(sm.startTime))
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// CPUPercent возвращает загрузку CPU процессом, при ошибке - системную
func (sm *ServerMetrics) CPUPercent() (float64, error) {
	if sm.proc != nil {
		if pct, err := sm.proc.CPUPercent(); err == nil {
			return pct, nil
		}
	}
	pcts, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("cpu percent unavailable")
	}
	return pcts[0], nil
}

// Collect собирает ProcessStats. Ошибки gopsutil не фатальны: поле остаётся нулевым.
func (sm *ServerMetrics) Collect() (ProcessStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     sm.Uptime(),
		HeapMB:     toMB(m.HeapAlloc),
		SysMB:      toMB(m.Sys),
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	if sm.proc != nil {
		if mem, err := sm.proc.MemoryInfo(); err == nil {
			stats.RSSMB = toMB(mem.RSS)
		}
	}

	pct, err := sm.CPUPercent()
	stats.CPUPercent = pct
	return stats, err
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
