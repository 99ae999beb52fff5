package progress

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// SysLoad is the host load block at the bottom of the dashboard.
type SysLoad struct {
	CPUs    int
	Load1   float64
	FreeRAM int64
}

// ReadSysLoad samples load average and free memory. Best effort: fields the
// platform cannot provide stay zero and are omitted from the render.
func ReadSysLoad() SysLoad {
	l := SysLoad{CPUs: runtime.NumCPU()}
	if b, err := os.ReadFile("/proc/loadavg"); err == nil {
		if fields := strings.Fields(string(b)); len(fields) > 0 {
			l.Load1, _ = strconv.ParseFloat(fields[0], 64)
		}
	}
	if b, err := os.ReadFile("/proc/meminfo"); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			if strings.HasPrefix(line, "MemAvailable:") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					kb, _ := strconv.ParseInt(fields[1], 10, 64)
					l.FreeRAM = kb * 1024
				}
				break
			}
		}
	}
	return l
}
