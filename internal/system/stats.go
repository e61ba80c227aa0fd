package system

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats хранит срез нагрузки на машину для отчета о производительности.
type HostStats struct {
	CPUPercent   float64
	MemUsedPct   float64
	ProcessRSS   uint64
	LogicalCores int
	SampledAt    time.Time
	Unavailable  bool
}

// SampleHost собирает статистику; при ошибке gopsutil возвращает Unavailable.
func SampleHost() HostStats {
	st := HostStats{SampledAt: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		st.CPUPercent = pct[0]
	} else {
		st.Unavailable = true
	}
	if n, err := cpu.Counts(true); err == nil {
		st.LogicalCores = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		st.MemUsedPct = vm.UsedPercent
	} else {
		st.Unavailable = true
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			st.ProcessRSS = mi.RSS
		}
	}
	return st
}

func (s HostStats) String() string {
	if s.Unavailable {
		return "host stats unavailable"
	}
	return fmt.Sprintf("CPU %.1f%% of %d cores | RAM %.1f%% | RSS %.1f MB",
		s.CPUPercent, s.LogicalCores, s.MemUsedPct, float64(s.ProcessRSS)/1024/1024)
}
