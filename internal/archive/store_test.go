package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/heal-ops/heal/internal/model"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()

	records := []model.LogRecord{
		{Severity: model.Info, Timestamp: at(1, 10), ModuleID: "HEAL_ET01", SubModule: "check_hdd", Line: 1, Message: "ip=10.0.0.1|/dev/sda|15|85"},
		{Severity: model.Info, Timestamp: at(2, 10), ModuleID: "HEAL_ET01", SubModule: "check_hdd", Line: 2, Message: "ip=10.0.0.1|/dev/sda|20|80"},
		{Severity: model.Info, Timestamp: at(4, 10), ModuleID: "HEAL_ET01", SubModule: "check_hdd", Line: 3, Message: "ip=10.0.0.1|/dev/sda|25|75"},
		{Severity: model.Error, Timestamp: at(2, 12), ModuleID: "HEAL_ET01", SubModule: "check_db", Line: 4, Message: "ip=10.0.0.2"},
		{Severity: model.Info, Timestamp: at(1, 12), ModuleID: "HEAL_ET01", SubModule: "check_db", Line: 5, Message: "ip=10.0.0.2"},
		{Severity: model.Info, Timestamp: at(1, 13), ModuleID: "HEAL_ET01", SubModule: "check_db", Line: 6, Message: "ip=10.0.0.1"},
		{Severity: model.Warning, Timestamp: at(3, 9), ModuleID: "HEAL_SR01", SubModule: "check_http", Line: 7, Message: "HTTP"},
		{Severity: model.Debug, Timestamp: at(3, 11), ModuleID: "HEAL_SR01", SubModule: "sync_users", Line: 8, Message: "done"},
	}
	require.NoError(t, s.Append(context.Background(), records))
}

func TestDateRange(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.DateRange(context.Background())
	assert.ErrorIs(t, err, ErrNoHistory)

	seed(t, s)
	first, last, err := s.DateRange(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Equal(at(1, 0)), "first = %s", first)
	assert.True(t, last.Equal(at(4, 0)), "last = %s", last)
}

func TestStorageHistory(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	rows, err := s.StorageHistory(context.Background(), "check_hdd", at(1, 0), at(2, 0))
	require.NoError(t, err)
	require.Len(t, rows, 2, "to-day is inclusive")
	assert.Equal(t, "ip=10.0.0.1|/dev/sda|15|85", rows[0].Message)
	assert.True(t, rows[0].Timestamp.Before(rows[1].Timestamp))
}

func TestServiceHistoryOrdering(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	rows, err := s.ServiceHistory(context.Background(), []string{"check_db", "check_http"}, at(1, 0), at(4, 0))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "ip=10.0.0.1", rows[0].Identity)
	assert.Equal(t, "ip=10.0.0.2", rows[1].Identity)
	assert.Equal(t, model.Info, rows[1].Severity)
	assert.Equal(t, "ip=10.0.0.2", rows[2].Identity)
	assert.Equal(t, model.Error, rows[2].Severity)
	assert.Equal(t, "check_http", rows[3].SubModule)

	none, err := s.ServiceHistory(context.Background(), nil, at(1, 0), at(4, 0))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestModuleHistoryNewestFirst(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	rows, err := s.ModuleHistory(context.Background(), "HEAL_SR01", at(1, 0), at(4, 0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sync_users", rows[0].SubModule)
	assert.Equal(t, model.Debug, rows[0].Severity)
	assert.Equal(t, "check_http", rows[1].SubModule)
	assert.Equal(t, 7, rows[1].Line)
}

func TestUnavailable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.StorageHistory(context.Background(), "check_hdd", at(1, 0), at(2, 0))
	assert.ErrorIs(t, err, ErrUnavailable)
}
