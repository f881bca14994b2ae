package model

import "time"

// LogRecord represents a single parsed row of a health log file.
type LogRecord struct {
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	ModuleID  string    `json:"module_id"`
	SubModule string    `json:"sub_module_name"`
	Line      int       `json:"line_number"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"` // originating file path
}

// TimedMessage is an archived (timestamp, message) pair.
type TimedMessage struct {
	Timestamp time.Time
	Message   string
}

// StatusSample is an archived service check result. Identity is the raw
// message of the row, i.e. the server or service the check ran against.
type StatusSample struct {
	Severity  Severity
	Timestamp time.Time
	SubModule string
	Identity  string
}
