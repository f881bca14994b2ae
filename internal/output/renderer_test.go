package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T) *aggregator.Snapshot {
	t.Helper()
	snap, err := aggregator.Take([]string{"ip=10.0.0.1", "ip=10.0.0.2"}, []string{"a.csv"}, []model.LogRecord{
		{Severity: model.Info, ModuleID: "HEAL_ET01", SubModule: "check_hdd", Message: "ip=10.0.0.1|/dev/sda|70|30"},
		{Severity: model.Info, ModuleID: "HEAL_ET01", SubModule: "check_hdd", Message: "ip=10.0.0.1|/dev/sda|90|10"},
		{Severity: model.Error, ModuleID: "HEAL_ET01", SubModule: "check_db", Message: "ip=10.0.0.2"},
		{Severity: model.Debug, ModuleID: "HEAL_SR01", SubModule: "sync_users", Message: "ok"},
	}, 1)
	require.NoError(t, err)
	return snap
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer(&buf).Render(snapshot(t)))

	var got struct {
		Tree    map[string]json.RawMessage `json:"tree"`
		Records int                        `json:"records"`
		Skipped int                        `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got), buf.String())

	assert.Equal(t, 4, got.Records)
	assert.Equal(t, 1, got.Skipped)
	assert.Contains(t, got.Tree, "server")
	assert.Contains(t, got.Tree, "HEAL_ET01")
	assert.JSONEq(t, `{"ip=10.0.0.1":{"status":"INFO"},"ip=10.0.0.2":{"status":"ERROR"}}`, string(got.Tree["server"]))
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer(&buf).Render(snapshot(t)))

	out := buf.String()
	assert.Contains(t, out, "Servers")
	assert.Contains(t, out, "ip=10.0.0.2")
	assert.Contains(t, out, "ip=10.0.0.1|/dev/sda")
	assert.Contains(t, out, "90.00% used", "latest disk row is shown")
	assert.NotContains(t, out, "70.00% used")
	assert.Contains(t, out, "check_db")
	assert.Contains(t, out, "HEAL_SR01")
	assert.Contains(t, out, "4 record(s) from 1 file(s), 1 skipped")
}
