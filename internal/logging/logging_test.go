package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/moonfall/colonysim/pkg/core"
)

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		run     core.Run
		want    string
	}{
		{
			name:    "uuid is shortened",
			logsDir: "logs",
			run:     core.Run{Name: "colonysim", StartTime: start, ID: "1f0c9a2e-4b7d-4c1e-9f00-000000000000"},
			want:    filepath.Join("logs", "colonysim.20260212_213836.1f0c9a2e.log"),
		},
		{
			name:    "short id kept",
			logsDir: "./logs",
			run:     core.Run{Name: "colonyview", StartTime: start, ID: "abc"},
			want:    filepath.Join(".", "logs", "colonyview.20260212_213836.abc.log"),
		},
		{
			name:    "no id",
			logsDir: filepath.Join("/var", "log", "colonysim"),
			run:     core.Run{Name: "colonysim", StartTime: start},
			want:    filepath.Join("/var", "log", "colonysim", "colonysim.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.run))
		})
	}
}
