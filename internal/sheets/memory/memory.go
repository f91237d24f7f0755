package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ledgerdash/internal/log"
	"ledgerdash/internal/sheets"
)

// Store is an in-process activity sink used when no spreadsheet is
// configured. Rows are logged and kept until the process exits.
type Store struct {
	mu     sync.Mutex
	rows   []sheets.ActivityRow
	logger *log.Logger
}

var _ sheets.ActivityWriter = (*Store)(nil)

func New(logger *log.Logger) *Store {
	return &Store{logger: logger.WithComponent(log.ComponentSheets)}
}

// AppendActivity stores the row and returns a synthetic row reference.
func (s *Store) AppendActivity(ctx context.Context, row sheets.ActivityRow) (string, error) {
	if row.EventID == "" {
		return "", errors.New("activity row has no event id")
	}
	s.mu.Lock()
	s.rows = append(s.rows, row)
	n := len(s.rows)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Activity recorded",
		log.FieldEventType, row.Type,
		log.FieldCompanyID, row.CompanyID,
		log.FieldResource, row.Resource,
		log.FieldRecordID, row.RecordID,
		log.FieldUserID, row.UserID)
	return fmt.Sprintf("mem:%d", n), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.ActivityRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ActivityRow(nil), s.rows...)
}
