package api

import "time"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the stats server
type ServerConfig struct {
	Bind string
	Port int
}

// Snapshot is a point-in-time view of listener activity
type Snapshot struct {
	StartedAt     time.Time         `json:"started_at"`
	Uptime        string            `json:"uptime"`
	Datagrams     uint64            `json:"datagrams"`
	Bytes         uint64            `json:"bytes"`
	Decoded       uint64            `json:"decoded"`
	Failed        uint64            `json:"failed"`
	JournalWrites uint64            `json:"journal_writes"`
	ArchiveWrites uint64            `json:"archive_writes"`
	SinkErrors    uint64            `json:"sink_errors"`
	LastEvent     string            `json:"last_event,omitempty"`
	LastSender    string            `json:"last_sender,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
	Events        map[string]uint64 `json:"events"`
}

// HealthStatus is returned by /health
type HealthStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}
