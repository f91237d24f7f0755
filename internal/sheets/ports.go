package sheets

import (
	"context"
	"strconv"
	"time"
)

// ActivityHeader is the header row of the activity sheet, in column order.
var ActivityHeader = []string{"Event ID", "Type", "At", "User ID", "Username", "Company ID", "Resource", "Record ID"}

// ActivityRow is one activity event as written to a sheet.
type ActivityRow struct {
	EventID   string
	Type      string
	At        time.Time
	UserID    int64
	Username  string
	CompanyID int64
	Resource  string
	RecordID  int64
}

// Values returns the row cells in ActivityHeader order. Zero ids are left
// blank.
func (r ActivityRow) Values() []any {
	return []any{
		r.EventID,
		r.Type,
		r.At.UTC().Format(time.RFC3339),
		optionalID(r.UserID),
		r.Username,
		optionalID(r.CompanyID),
		r.Resource,
		optionalID(r.RecordID),
	}
}

func optionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Ports for outbound adapters.
type (
	ActivityWriter interface {
		AppendActivity(ctx context.Context, row ActivityRow) (rowRef string, err error)
	}

	// HeaderEnsurer is implemented by writers whose sheet needs a header row.
	HeaderEnsurer interface {
		EnsureHeader(ctx context.Context) error
	}
)
