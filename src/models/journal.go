package models

// MJournalEntry is one dispatched request as persisted by the audit journal.
type MJournalEntry struct {
	SessionID  string  `json:"session_id"`
	Capability string  `json:"capability"`
	Outcome    string  `json:"outcome"`
	Retcode    int32   `json:"retcode"` // trades only, 0 otherwise
	ElapsedMs  float64 `json:"elapsed_ms"`
	Timestamp  int64   `json:"timestamp"`
}
