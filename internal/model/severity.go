package model

import "fmt"

// Severity is the level a log record was emitted at.
type Severity string

const (
	Info     Severity = "INFO"
	Debug    Severity = "DEBUG"
	Warning  Severity = "WARNING"
	Error    Severity = "ERROR"
	Critical Severity = "CRITICAL"
)

// ParseSeverity accepts the exact upper-case level names only.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case Info, Debug, Warning, Error, Critical:
		return sev, nil
	}
	return "", fmt.Errorf("%w: unknown severity %q", ErrMalformedRecord, s)
}

// Elevated reports whether the severity is anything other than INFO or DEBUG.
func (s Severity) Elevated() bool {
	return s != Info && s != Debug
}

// Rank orders severities for display: 0 for INFO/DEBUG, 1 for WARNING and
// 2 for ERROR/CRITICAL. It plays no part in status precedence.
func (s Severity) Rank() int {
	switch s {
	case Warning:
		return 1
	case Error, Critical:
		return 2
	default:
		return 0
	}
}

func (s Severity) String() string { return string(s) }
