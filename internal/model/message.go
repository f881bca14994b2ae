package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DiskUsage is the decoded message of a check_hdd row:
// server|partition|used|available.
type DiskUsage struct {
	Server    string
	Partition string
	Used      string
	Available string
}

// ParseDiskUsage splits a check_hdd message into its four parts.
func ParseDiskUsage(msg string) (DiskUsage, error) {
	parts := strings.Split(msg, "|")
	if len(parts) != 4 {
		return DiskUsage{}, fmt.Errorf("%w: disk message %q has %d parts, want 4", ErrMalformedRecord, msg, len(parts))
	}
	return DiskUsage{
		Server:    parts[0],
		Partition: parts[1],
		Used:      parts[2],
		Available: parts[3],
	}, nil
}

// EntityKey is the server|partition key of the disk.
func (d DiskUsage) EntityKey() string {
	return d.Server + "|" + d.Partition
}

// Storage is the used|available pair as stored in the health tree.
func (d DiskUsage) Storage() string {
	return d.Used + "|" + d.Available
}

// Magnitude is a number with an optional unit suffix, e.g. 70gb.
type Magnitude struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// ParseMagnitude extracts the first number embedded in s and the letters
// directly following it. "70gb" gives 70 "gb", "1.5 TB" gives 1.5 "tb".
func ParseMagnitude(s string) (Magnitude, error) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return Magnitude{}, fmt.Errorf("%w: no numeric value in %q", ErrMalformedRecord, s)
	}

	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end+1 < len(s) && s[end] == '.' && isDigit(s[end+1]) {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
		}
	}

	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return Magnitude{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	rest := strings.TrimLeft(s[end:], " ")
	unitEnd := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
	if unitEnd < 0 {
		unitEnd = len(rest)
	}

	return Magnitude{Value: v, Unit: strings.ToLower(rest[:unitEnd])}, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
