package backend

import (
	"context"

	"ledgerdash/internal/services"
	"ledgerdash/internal/sheets"
	"ledgerdash/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the infrastructure the web process runs on.
// Publisher is nil when no broker is configured or reachable.
type Result struct {
	Store     storage.Store
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the session store and the optional activity publisher.
	CreateBackend(ctx context.Context, config Config) (*Result, error)
	// CreateActivitySink returns the Google Sheets writer when credentials are
	// configured and the in-memory sink otherwise.
	CreateActivitySink(ctx context.Context, config Config) (sheets.ActivityWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Activity publishing, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Activity sink (worker)
	SheetsEnabled            bool
	GoogleSpreadsheetID      string
	GoogleActivitySheet      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType selects where session values persist.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
