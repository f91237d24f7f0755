package backend

import (
	"context"
	"fmt"

	"ledgerdash/internal/amqp"
	"ledgerdash/internal/log"
	"ledgerdash/internal/sheets"
	gsheet "ledgerdash/internal/sheets/google"
	"ledgerdash/internal/sheets/memory"
	"ledgerdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store storage.Store
	switch config.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
		}
		store = s
		f.logger.InfoContext(ctx, "Initialized SQLite session store", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.WarnContext(ctx, "Using in-memory session store, sessions will not survive a restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &Result{Store: store, Cleanup: store.Close}

	// AMQP is optional; a broker that is down disables activity publishing.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without activity events", log.FieldError, err.Error())
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
		}
	}

	return result, nil
}

// CreateActivitySink implements Factory.CreateActivitySink
func (f *DefaultFactory) CreateActivitySink(ctx context.Context, config Config) (sheets.ActivityWriter, error) {
	if !config.SheetsEnabled {
		f.logger.InfoContext(ctx, "Google Sheets not configured, writing activity to memory")
		return memory.New(f.logger), nil
	}
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		Sheet:              config.GoogleActivitySheet,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets activity sink", "sheet", config.GoogleActivitySheet)
	return cli, nil
}
