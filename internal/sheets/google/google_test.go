package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerdash/internal/log"
	"ledgerdash/internal/sheets"
)

type fakeSheets struct {
	mu       sync.Mutex
	header   [][]any
	appended [][]any
	updates  int
	paths    []string
}

func newFakeSheets(t *testing.T, header [][]any) (*fakeSheets, *Client) {
	t.Helper()
	fs := &fakeSheets{header: header}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		fs.paths = append(fs.paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(gsheet.ValueRange{Values: fs.header})
		case strings.HasSuffix(r.URL.Path, ":append"):
			var vr gsheet.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&vr)
			fs.appended = append(fs.appended, vr.Values...)
			_ = json.NewEncoder(w).Encode(gsheet.AppendValuesResponse{
				Updates: &gsheet.UpdateValuesResponse{UpdatedRange: "Activity!A2:H2"},
			})
		case r.Method == http.MethodPut:
			var vr gsheet.ValueRange
			_ = json.NewDecoder(r.Body).Decode(&vr)
			fs.header = vr.Values
			fs.updates++
			_ = json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"}, log.Discard(),
		goption.WithEndpoint(srv.URL+"/"), goption.WithoutAuthentication(), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return fs, c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.Discard())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/nonexistent/sa.json"}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendActivity(t *testing.T) {
	fs, c := newFakeSheets(t, nil)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ref, err := c.AppendActivity(context.Background(), sheets.ActivityRow{
		EventID: "e1", Type: "record.created", At: at, UserID: 9, CompanyID: 4, Resource: "income",
	})
	if err != nil {
		t.Fatalf("AppendActivity: %v", err)
	}
	if ref != "Activity!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if len(fs.appended) != 1 {
		t.Fatalf("appended %d rows, want 1", len(fs.appended))
	}
	row := fs.appended[0]
	if row[0] != "e1" || row[2] != "2024-03-01T12:00:00Z" || row[7] != "" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestAppendActivity_RequiresEventID(t *testing.T) {
	fs, c := newFakeSheets(t, nil)
	if _, err := c.AppendActivity(context.Background(), sheets.ActivityRow{Type: "login"}); err == nil {
		t.Fatal("expected error")
	}
	if len(fs.paths) != 0 {
		t.Errorf("unexpected requests: %v", fs.paths)
	}
}

func TestEnsureHeader(t *testing.T) {
	t.Run("writes header on empty sheet", func(t *testing.T) {
		fs, c := newFakeSheets(t, nil)
		if err := c.EnsureHeader(context.Background()); err != nil {
			t.Fatalf("EnsureHeader: %v", err)
		}
		if fs.updates != 1 || len(fs.header) != 1 || fs.header[0][0] != "Event ID" {
			t.Errorf("header not written: %v", fs.header)
		}
	})

	t.Run("keeps matching header", func(t *testing.T) {
		header := make([]any, len(sheets.ActivityHeader))
		for i, h := range sheets.ActivityHeader {
			header[i] = h
		}
		fs, c := newFakeSheets(t, [][]any{header})
		if err := c.EnsureHeader(context.Background()); err != nil {
			t.Fatalf("EnsureHeader: %v", err)
		}
		if fs.updates != 0 {
			t.Error("matching header was rewritten")
		}
	})

	t.Run("rejects foreign header", func(t *testing.T) {
		_, c := newFakeSheets(t, [][]any{{"Month", "Day", "Description"}})
		err := c.EnsureHeader(context.Background())
		if err == nil || !strings.Contains(err.Error(), "missing Event ID") {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestHeaderState(t *testing.T) {
	empty, err := headerState(nil)
	if !empty || err != nil {
		t.Errorf("nil values: empty=%v err=%v", empty, err)
	}
	empty, err = headerState([][]any{{}})
	if !empty || err != nil {
		t.Errorf("blank row: empty=%v err=%v", empty, err)
	}
}
