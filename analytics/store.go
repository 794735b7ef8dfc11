package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides database operations for analytics.
type Store struct {
	db *sql.DB
}

// NewStore creates a new analytics store.
func NewStore(dbPath string) (*Store, error) {
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping analytics db: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			page_url TEXT NOT NULL DEFAULT '',
			coordinates TEXT NOT NULL DEFAULT '',
			location_address TEXT NOT NULL DEFAULT '',
			location_error TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS visitor_marks (
			visitor_id TEXT NOT NULL,
			bucket TEXT NOT NULL,
			PRIMARY KEY (visitor_id, bucket)
		);

		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_visitor_id ON visits(visitor_id);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}

	return s.SetSetting("schema_version", strconv.Itoa(currentSchemaVersion))
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Seen reports whether visitorID already has a visit in bucket.
func (s *Store) Seen(ctx context.Context, visitorID, bucket string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitor_marks WHERE visitor_id = ? AND bucket = ?`, visitorID, bucket).Scan(&n)
	return n > 0, err
}

// RecordVisit stores v unless its visitor was already recorded in the hour
// of v.Timestamp. It reports whether v was stored, and sets v.ID when it was.
func (s *Store) RecordVisit(ctx context.Context, v *Visit) (bool, error) {
	if v.ID != 0 {
		return false, fmt.Errorf("visit %d already saved", v.ID)
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO visitor_marks (visitor_id, bucket) VALUES (?, ?)`,
		v.VisitorID, HourBucket(v.Timestamp))
	if err != nil {
		return false, fmt.Errorf("mark visitor: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	res, err = tx.ExecContext(ctx, `INSERT INTO visits
		(visitor_id, session_id, ip_hash, browser, os, device, page_url, coordinates, location_address, location_error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device, v.PageURL,
		v.Coordinates, v.LocationAddress, v.LocationError, v.Timestamp.UTC())
	if err != nil {
		return false, fmt.Errorf("insert visit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	v.ID = id
	return true, nil
}

// ListVisits returns visits newest first together with the total count.
func (s *Store) ListVisits(ctx context.Context, limit, offset int) ([]Visit, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, visitor_id, session_id, ip_hash, browser, os, device, page_url,
		coordinates, location_address, location_error, timestamp
		FROM visits ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	visits := []Visit{}
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.VisitorID, &v.SessionID, &v.IPHash, &v.Browser, &v.OS, &v.Device,
			&v.PageURL, &v.Coordinates, &v.LocationAddress, &v.LocationError, &v.Timestamp); err != nil {
			return nil, 0, err
		}
		visits = append(visits, v)
	}
	return visits, total, rows.Err()
}

// ViewCount returns the number of recorded visits.
func (s *Store) ViewCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n)
	return n, err
}

// UniqueVisitors returns the number of distinct visitors ever recorded.
func (s *Store) UniqueVisitors(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT visitor_id) FROM visits`).Scan(&n)
	return n, err
}

// GetSummary aggregates counters and per-dimension breakdowns.
func (s *Store) GetSummary(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		BrowserStats: []DimensionStat{},
		OSStats:      []DimensionStat{},
		DeviceStats:  []DimensionStat{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	counters := []struct {
		name  string
		query string
		dst   *int
	}{
		{"total views", `SELECT COUNT(*) FROM visits`, &sum.TotalViews},
		{"unique visitors", `SELECT COUNT(DISTINCT visitor_id) FROM visits`, &sum.UniqueVisitors},
		{"located", `SELECT COUNT(*) FROM visits WHERE coordinates != ''`, &sum.Located},
	}
	for _, c := range counters {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int
			if err := s.db.QueryRowContext(ctx, c.query).Scan(&n); err != nil {
				setErr(fmt.Errorf("%s: %w", c.name, err))
				return
			}
			mu.Lock()
			*c.dst = n
			mu.Unlock()
		}()
	}

	dimensions := []struct {
		column string
		dst    *[]DimensionStat
	}{
		{"browser", &sum.BrowserStats},
		{"os", &sum.OSStats},
		{"device", &sum.DeviceStats},
	}
	for _, d := range dimensions {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := s.dimension(ctx, d.column)
			if err != nil {
				setErr(fmt.Errorf("%s stats: %w", d.column, err))
				return
			}
			mu.Lock()
			*d.dst = stats
			mu.Unlock()
		}()
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return sum, nil
}

// dimension groups visits by column. column is never user input.
func (s *Store) dimension(ctx context.Context, column string) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) AS n FROM visits GROUP BY `+column+` ORDER BY n DESC LIMIT 10`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// CleanupOldVisits removes visits and visitor marks older than the retention period.
func (s *Store) CleanupOldVisits(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	if _, err := s.db.Exec(`DELETE FROM visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup visits: %w", err)
	}
	// Marks only matter for the current hour.
	if _, err := s.db.Exec(`DELETE FROM visitor_marks WHERE bucket < ?`, HourBucket(time.Now().Add(-24*time.Hour))); err != nil {
		return fmt.Errorf("cleanup visitor_marks: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs periodic cleanup of old data. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldVisits(retentionDays); err != nil {
					slog.Error("analytics cleanup failed", "err", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
