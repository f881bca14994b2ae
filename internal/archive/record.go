package archive

import (
	"time"

	"github.com/heal-ops/heal/internal/model"
)

// TableName is the archive table the health checks write to.
const TableName = "HEAL_archive"

// Record is one archived log row.
type Record struct {
	ID            uint64    `gorm:"primaryKey"`
	Type          string    `gorm:"column:type;size:16;not null;index"`
	Timestamp     time.Time `gorm:"column:timestamp;not null;index"`
	ModuleID      string    `gorm:"column:module_id;size:128;not null;index"`
	SubModuleName string    `gorm:"column:sub_module_name;size:128;not null;index"`
	LineNumber    int       `gorm:"column:line_number"`
	Message       string    `gorm:"column:message;type:text"`
}

func (Record) TableName() string { return TableName }

// FromLogRecord converts a parsed row for storage.
func FromLogRecord(r model.LogRecord) Record {
	return Record{
		Type:          string(r.Severity),
		Timestamp:     r.Timestamp,
		ModuleID:      r.ModuleID,
		SubModuleName: r.SubModule,
		LineNumber:    r.Line,
		Message:       r.Message,
	}
}

// LogRecord converts a stored row back. Severity is passed through as
// stored; the archive is written by trusted producers.
func (r Record) LogRecord() model.LogRecord {
	return model.LogRecord{
		Severity:  model.Severity(r.Type),
		Timestamp: r.Timestamp,
		ModuleID:  r.ModuleID,
		SubModule: r.SubModuleName,
		Line:      r.LineNumber,
		Message:   r.Message,
	}
}
