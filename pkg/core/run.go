package core

import "time"

// Run identifies one simulation from start to game over.
type Run struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	StartTime time.Time     `json:"startTime"`
	Seed      uint64        `json:"seed"`
	DayLength time.Duration `json:"dayLength"`
	Version   string        `json:"version"`
}

// RunSummary closes a run.
type RunSummary struct {
	EndTime  time.Time `json:"endTime"`
	Days     int       `json:"days"`
	Final    DayState  `json:"final"`
	Survived int       `json:"survived"`
}

// UploadMetadata contains run metadata sent alongside an exported journal.
type UploadMetadata struct {
	RunName     string
	RunDuration float64
	Days        int
	Tag         string
}
