// Package storage persists the small set of keyed values that make up a
// browser session: the bearer token, the current user and the selected
// company. Values are opaque strings; the session package owns their encoding.
package storage

import (
	"context"
	"time"
)

// Persisted session keys.
const (
	KeyToken           = "token"
	KeyUser            = "user"
	KeySelectedCompany = "selectedCompany"
)

// SessionKeys lists every key a session may persist.
var SessionKeys = []string{KeyToken, KeyUser, KeySelectedCompany}

// Store holds keyed values per session id.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
	// Touch marks every value of a session as used now.
	Touch(ctx context.Context, sessionID string) error
	// PurgeIdle drops sessions not written or touched since before and reports
	// how many values went.
	PurgeIdle(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
