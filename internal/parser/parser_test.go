package parser

import (
	"testing"
	"time"

	"github.com/heal-ops/heal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser(t *testing.T) {
	p := NewCSVParser()

	rec, err := p.Parse("ERROR,2024-03-04 13:33:23,451,HEAL_ET01,check_db,42,ip=10.0.0.1", "/var/log/heal/a.csv")
	// Unquoted commas inside the timestamp split it into an extra field.
	assert.ErrorIs(t, err, model.ErrMalformedRecord)

	rec, err = p.Parse(`ERROR,"2024-03-04 13:33:23,451",HEAL_ET01,check_db,42,ip=10.0.0.1`, "/var/log/heal/a.csv")
	require.NoError(t, err)

	assert.Equal(t, model.Error, rec.Severity)
	assert.Equal(t, time.Date(2024, 3, 4, 13, 33, 23, 451000000, time.UTC), rec.Timestamp)
	assert.Equal(t, "HEAL_ET01", rec.ModuleID)
	assert.Equal(t, "check_db", rec.SubModule)
	assert.Equal(t, 42, rec.Line)
	assert.Equal(t, "ip=10.0.0.1", rec.Message)
	assert.Equal(t, "/var/log/heal/a.csv", rec.Source)
}

func TestParseFieldsTimestampLayouts(t *testing.T) {
	for _, ts := range []string{"2024-03-04 13:33:23", "2024-03-04T13:33:23Z"} {
		rec, err := ParseFields([]string{"INFO", ts, "HEAL_ET01", "check_http", "1", "HTTP"})
		require.NoError(t, err, ts)
		assert.Equal(t, 2024, rec.Timestamp.Year())
	}
}

func TestParseFieldsRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
	}{
		{"too few fields", []string{"INFO", "2024-03-04 13:33:23", "HEAL_ET01", "check_http", "1"}},
		{"too many fields", []string{"INFO", "2024-03-04 13:33:23", "HEAL_ET01", "check_http", "1", "a", "b"}},
		{"lower-case severity", []string{"info", "2024-03-04 13:33:23", "HEAL_ET01", "check_http", "1", "HTTP"}},
		{"bad timestamp", []string{"INFO", "yesterday", "HEAL_ET01", "check_http", "1", "HTTP"}},
		{"bad line number", []string{"INFO", "2024-03-04 13:33:23", "HEAL_ET01", "check_http", "x", "HTTP"}},
		{"empty module", []string{"INFO", "2024-03-04 13:33:23", "", "check_http", "1", "HTTP"}},
		{"reserved module", []string{"INFO", "2024-03-04 13:33:23", "server", "check_http", "1", "HTTP"}},
		{"short disk message", []string{"INFO", "2024-03-04 13:33:23", "HEAL_ET01", "check_hdd", "1", "ip=10.0.0.1|/dev/sda|70"}},
		{"empty service identity", []string{"ERROR", "2024-03-04 13:33:23", "HEAL_ET01", "check_db", "1", ""}},
		{"blank service identity", []string{"ERROR", "2024-03-04 13:33:23", "HEAL_ET01", "check_http", "1", "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFields(tt.fields)
			assert.ErrorIs(t, err, model.ErrMalformedRecord)
		})
	}
}

func TestParseFieldsDisk(t *testing.T) {
	rec, err := ParseFields([]string{"WARNING", "2024-03-04 13:33:23", "HEAL_ET01", "check_hdd", "7", "ip=10.0.0.1|/dev/sda|70gb|30gb"})
	require.NoError(t, err)
	assert.Equal(t, model.Warning, rec.Severity)
	assert.Equal(t, "ip=10.0.0.1|/dev/sda|70gb|30gb", rec.Message)
}
