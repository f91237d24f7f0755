package memory

import (
	"context"
	"testing"
	"time"

	"ledgerdash/internal/log"
	"ledgerdash/internal/sheets"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New(log.Discard())

	ref, err := s.AppendActivity(context.Background(), sheets.ActivityRow{EventID: "e1", Type: "login", At: time.Now()})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, err = s.AppendActivity(context.Background(), sheets.ActivityRow{EventID: "e2", Type: "logout"})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 2 || rows[1].Type != "logout" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMemoryStoreRejectsRowWithoutID(t *testing.T) {
	s := New(log.Discard())
	if _, err := s.AppendActivity(context.Background(), sheets.ActivityRow{Type: "login"}); err == nil {
		t.Fatal("expected error for row without event id")
	}
	if len(s.Rows()) != 0 {
		t.Fatal("rejected row was stored")
	}
}
