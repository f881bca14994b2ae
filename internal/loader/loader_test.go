package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heal-ops/heal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `INFO,2024-03-04 13:33:20,HEAL_ET01,check_hdd,10,ip=10.0.0.1|/dev/sda|70|30
ERROR,2024-03-04 13:33:21,HEAL_ET01,check_db,11
WARNING,2024-03-04 13:33:22,HEAL_ET01,check_db,12,ip=10.0.0.2
DEBUG,2024-03-04 13:33:23,HEAL_SR01,sync_users,13,done
`

func TestLoadSkipsMalformedRows(t *testing.T) {
	b := Load(strings.NewReader(sample), "a.csv")

	require.Len(t, b.Records, 3)
	assert.Equal(t, "check_hdd", b.Records[0].SubModule)
	assert.Equal(t, "check_db", b.Records[1].SubModule)
	assert.Equal(t, 12, b.Records[1].Line)
	assert.Equal(t, "sync_users", b.Records[2].SubModule)
	for _, r := range b.Records {
		assert.Equal(t, "a.csv", r.Source)
	}

	require.Len(t, b.Errors, 1)
	assert.ErrorIs(t, b.Errors[0], model.ErrMalformedRecord)
	assert.Contains(t, b.Errors[0].Error(), "a.csv:2")
	assert.ErrorIs(t, b.Err(), model.ErrMalformedRecord)
}

func TestLoadEmpty(t *testing.T) {
	b := Load(strings.NewReader(""), "empty.csv")
	assert.Empty(t, b.Records)
	assert.NoError(t, b.Err())
}

func TestLoadFilesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "1.csv")
	second := filepath.Join(dir, "2.csv")
	missing := filepath.Join(dir, "missing.csv")

	require.NoError(t, os.WriteFile(first, []byte("ERROR,2024-03-04 13:33:20,HEAL_ET01,check_db,1,ip=10.0.0.1\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("INFO,2024-03-04 13:33:21,HEAL_SR01,check_http,1,HTTP\n"), 0644))

	batches := LoadFiles([]string{second, missing, first})
	require.Len(t, batches, 3)
	assert.Equal(t, second, batches[0].Source)
	assert.Error(t, batches[1].Err())
	assert.Equal(t, first, batches[2].Source)

	recs := Records(batches)
	require.Len(t, recs, 2)
	assert.Equal(t, "HEAL_SR01", recs[0].ModuleID)
	assert.Equal(t, "HEAL_ET01", recs[1].ModuleID)
	assert.Equal(t, 1, Skipped(batches))
}
