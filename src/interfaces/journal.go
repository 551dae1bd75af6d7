package interfaces

import "mt5-bridge/src/models"

// -----------------------------------------------------------------------------
// IJournal defines the contract for the request audit trail.
// -----------------------------------------------------------------------------

type IJournal interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the journal schema.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Append records one dispatched request outcome.
	Append(entry models.MJournalEntry) error

	// -----------------------------------------------------------------------------

	// Recent returns up to n entries, newest first.
	Recent(n int) ([]models.MJournalEntry, error)

	// -----------------------------------------------------------------------------

	// Close the journal connection
	Close() error
}
