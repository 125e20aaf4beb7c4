package metrics

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const cpuSampleWindow = 200 * time.Millisecond

type CPUStats struct {
	Usage   float64
	Cores   int
	MHz     float64
	Model   string
	LoadAvg []float64
}

type MemoryStats struct {
	Total     uint64
	Used      uint64
	Available uint64
	Cached    uint64
}

type DiskStats struct {
	Path        string
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
}

type ProcessStats struct {
	PID        int32
	RSS        uint64
	CPUPercent float64
}

// Collector reads host and process figures.
type Collector interface {
	CPU(ctx context.Context) (CPUStats, error)
	Memory(ctx context.Context) (MemoryStats, error)
	Disk(ctx context.Context, path string) (DiskStats, error)
	Uptime(ctx context.Context) (time.Duration, error)
	Process(ctx context.Context) (ProcessStats, error)
}

type SystemCollector struct{}

func NewSystemCollector() *SystemCollector { return &SystemCollector{} }

func (SystemCollector) CPU(ctx context.Context) (CPUStats, error) {
	var out CPUStats
	percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		return out, err
	}
	if len(percents) > 0 {
		out.Usage = percents[0]
	}
	if out.Cores, err = cpu.CountsWithContext(ctx, true); err != nil {
		return out, err
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		out.Model = infos[0].ModelName
		out.MHz = infos[0].Mhz
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.LoadAvg = []float64{avg.Load1, avg.Load5, avg.Load15}
	}
	return out, nil
}

// Memory reports used as total minus available, so reclaimable cache does not count.
func (SystemCollector) Memory(ctx context.Context) (MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStats{}, err
	}
	return MemoryStats{
		Total:     vm.Total,
		Used:      vm.Total - vm.Available,
		Available: vm.Available,
		Cached:    vm.Cached,
	}, nil
}

func (SystemCollector) Disk(ctx context.Context, path string) (DiskStats, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return DiskStats{}, err
	}
	return DiskStats{Path: u.Path, Total: u.Total, Used: u.Used, Free: u.Free, UsedPercent: u.UsedPercent}, nil
}

func (SystemCollector) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

func (SystemCollector) Process(ctx context.Context) (ProcessStats, error) {
	pid := int32(os.Getpid())
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ProcessStats{PID: pid}, err
	}
	out := ProcessStats{PID: pid}
	if m, err := p.MemoryInfoWithContext(ctx); err == nil {
		out.RSS = m.RSS
	}
	if pct, err := p.CPUPercentWithContext(ctx); err == nil {
		out.CPUPercent = pct
	}
	return out, nil
}
