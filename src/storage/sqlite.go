package storage

import (
	"database/sql"
	"fmt"

	"mt5-bridge/src/logger"
	"mt5-bridge/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteJournal(cfg *models.MConfig, log *logger.Logger) (*SQLiteJournal, error) {
	return &SQLiteJournal{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) Initialize() error {
	dsn := j.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	j.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		j.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		j.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	// The journal is an audit trail: keep rows across restarts.
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			capability TEXT,
			outcome TEXT,
			retcode INTEGER,
			elapsed_ms REAL,
			timestamp INTEGER
		);
	`
	if _, err := j.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create requests table: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) Append(entry models.MJournalEntry) error {
	_, err := j.DB.Exec(
		`INSERT INTO requests (session_id, capability, outcome, retcode, elapsed_ms, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.Capability, entry.Outcome, entry.Retcode, entry.ElapsedMs, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) Recent(n int) ([]models.MJournalEntry, error) {
	rows, err := j.DB.Query(
		`SELECT session_id, capability, outcome, retcode, elapsed_ms, timestamp
		 FROM requests ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MJournalEntry
	for rows.Next() {
		var e models.MJournalEntry
		if err := rows.Scan(&e.SessionID, &e.Capability, &e.Outcome, &e.Retcode, &e.ElapsedMs, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -----------------------------------------------------------------------------

func (j *SQLiteJournal) Close() error {
	if j.DB == nil {
		return nil
	}
	return j.DB.Close()
}
