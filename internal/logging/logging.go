package logging

import (
	"fmt"
	"path/filepath"

	"github.com/moonfall/colonysim/pkg/core"
)

// LogFilePath names the log file for run inside logsDir, e.g.
// colonysim.20260212_213836.1f0c9a2e.log. Runs started in the same second
// still get separate files.
func LogFilePath(logsDir string, run core.Run) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s.%s", run.Name, run.StartTime.Format("20060102_150405"))
	if id != "" {
		name += "." + id
	}
	return filepath.Join(logsDir, name+".log")
}
