package storage

import (
	"database/sql"
	"fmt"

	"mt5-bridge/src/logger"
	"mt5-bridge/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresJournal(cfg *models.MConfig, log *logger.Logger) (*PostgresJournal, error) {
	return &PostgresJournal{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (j *PostgresJournal) Initialize() error {
	dsn := j.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	j.DB = db

	query := `
		CREATE TABLE IF NOT EXISTS bridge_requests (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT,
			capability TEXT,
			outcome TEXT,
			retcode INTEGER,
			elapsed_ms DOUBLE PRECISION,
			timestamp BIGINT
		);
	`
	if _, err := j.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create bridge_requests table: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (j *PostgresJournal) Append(entry models.MJournalEntry) error {
	_, err := j.DB.Exec(
		`INSERT INTO bridge_requests (session_id, capability, outcome, retcode, elapsed_ms, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.SessionID, entry.Capability, entry.Outcome, entry.Retcode, entry.ElapsedMs, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (j *PostgresJournal) Recent(n int) ([]models.MJournalEntry, error) {
	rows, err := j.DB.Query(
		`SELECT session_id, capability, outcome, retcode, elapsed_ms, timestamp
		 FROM bridge_requests ORDER BY id DESC LIMIT $1`, n,
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

func (j *PostgresJournal) Close() error {
	if j.DB == nil {
		return nil
	}
	return j.DB.Close()
}
