// Package logging sets up structured logging for the simulator.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds the path of a session's log file using OS-appropriate separators.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}
