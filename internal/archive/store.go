package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/heal-ops/heal/internal/model"
)

var (
	// ErrUnavailable wraps every failure to reach or query the archive.
	ErrUnavailable = errors.New("archive unavailable")
	// ErrNoHistory means the archive holds no rows.
	ErrNoHistory = errors.New("archive is empty")
)

// Store answers read-only history queries against the archive table.
type Store struct {
	db *gorm.DB
}

// Open connects to a MySQL/MariaDB archive, e.g.
// "user:pass@tcp(localhost:3306)/HEAL_history?parseTime=true".
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return New(db), nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the archive table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append stores records in one batch insert.
func (s *Store) Append(ctx context.Context, records []model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]Record, len(records))
	for i, r := range records {
		rows[i] = FromLogRecord(r)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// DateRange returns the first and last archived days.
func (s *Store) DateRange(ctx context.Context) (first, last time.Time, err error) {
	var lo, hi Record
	db := s.db.WithContext(ctx)

	if err := db.Order("timestamp asc").Take(&lo).Error; err != nil {
		return time.Time{}, time.Time{}, wrap(err)
	}
	if err := db.Order("timestamp desc").Take(&hi).Error; err != nil {
		return time.Time{}, time.Time{}, wrap(err)
	}
	return truncateDay(lo.Timestamp), truncateDay(hi.Timestamp), nil
}

// StorageHistory returns (timestamp, message) of subModule rows between
// the from and to days inclusive, oldest first.
func (s *Store) StorageHistory(ctx context.Context, subModule string, from, to time.Time) ([]model.TimedMessage, error) {
	var rows []Record
	err := s.between(ctx, from, to).
		Select("timestamp", "message").
		Where("sub_module_name = ?", subModule).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err)
	}

	out := make([]model.TimedMessage, len(rows))
	for i, r := range rows {
		out[i] = model.TimedMessage{Timestamp: r.Timestamp, Message: r.Message}
	}
	return out, nil
}

// ServiceHistory returns samples of the given sub-modules between the from
// and to days inclusive, ordered by sub-module, identity and time.
func (s *Store) ServiceHistory(ctx context.Context, subModules []string, from, to time.Time) ([]model.StatusSample, error) {
	if len(subModules) == 0 {
		return nil, nil
	}

	var rows []Record
	err := s.between(ctx, from, to).
		Select("type", "timestamp", "sub_module_name", "message").
		Where("sub_module_name IN ?", subModules).
		Order("sub_module_name asc").
		Order("message asc").
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err)
	}

	out := make([]model.StatusSample, len(rows))
	for i, r := range rows {
		out[i] = model.StatusSample{
			Severity:  model.Severity(r.Type),
			Timestamp: r.Timestamp,
			SubModule: r.SubModuleName,
			Identity:  r.Message,
		}
	}
	return out, nil
}

// ModuleHistory returns every row of a module between the from and to
// days inclusive, newest first.
func (s *Store) ModuleHistory(ctx context.Context, moduleID string, from, to time.Time) ([]model.LogRecord, error) {
	var rows []Record
	err := s.between(ctx, from, to).
		Where("module_id = ?", moduleID).
		Order("timestamp desc").
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err)
	}

	out := make([]model.LogRecord, len(rows))
	for i, r := range rows {
		out[i] = r.LogRecord()
	}
	return out, nil
}

// between limits a query to whole days [from, to].
func (s *Store) between(ctx context.Context, from, to time.Time) *gorm.DB {
	start := truncateDay(from)
	end := truncateDay(to).AddDate(0, 0, 1)
	return s.db.WithContext(ctx).Model(&Record{}).
		Where("timestamp >= ? AND timestamp < ?", start, end)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func wrap(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoHistory
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
