package plugins

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/caelumsys/caelum/command"
	"github.com/caelumsys/caelum/loader"
)

var startTime = time.Now()

// System returns informational commands about the host and the process.
func System() loader.Unit {
	return loader.Static("system",
		command.Definition{
			Pattern:     "get system info",
			Description: "Show operating system, architecture and host name",
			Safe:        true,
			Handler:     handleSystemInfo,
		},
		command.Definition{
			Pattern:     "get go version",
			Description: "Show the Go runtime version",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return "🐹 " + runtime.Version(), nil
			},
		},
		command.Definition{
			Pattern:     "get memory usage",
			Description: "Show memory used by Caelum",
			Safe:        true,
			Handler:     handleMemory,
		},
		command.Definition{
			Pattern:     "get uptime",
			Description: "Show how long Caelum has been running",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return "⏱️ Uptime: " + time.Since(startTime).Round(time.Second).String(), nil
			},
		},
		command.Definition{
			Pattern:     "get cpu count",
			Description: "Show the number of logical CPUs",
			Safe:        true,
			Handler: func(context.Context, command.Args) (string, error) {
				return fmt.Sprintf("🧮 Logical CPUs: %d", runtime.NumCPU()), nil
			},
		},
	)
}

func handleSystemInfo(context.Context, command.Args) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return fmt.Sprintf(`🖥️ System Info
• OS: %s
• Arch: %s
• Host: %s
• CPUs: %d
• Go: %s`,
		runtime.GOOS,
		runtime.GOARCH,
		host,
		runtime.NumCPU(),
		runtime.Version(),
	), nil
}

func handleMemory(context.Context, command.Args) (string, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return fmt.Sprintf(`🧠 Memory
• Alloc: %.1f MB
• Sys: %.1f MB
• GC cycles: %d
• Goroutines: %d`,
		float64(m.Alloc)/1024/1024,
		float64(m.Sys)/1024/1024,
		m.NumGC,
		runtime.NumGoroutine(),
	), nil
}
