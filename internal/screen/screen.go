// Package screen implements the list-plus-dialog pattern shared by every
// company resource: fetch the company's records, show them, create or edit
// one record through a form, delete with confirmation, and always re-fetch
// after a mutation instead of patching the list locally.
package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/log"
)

// Values holds form field values keyed by field name.
type Values map[string]string

func (v Values) Get(name string) string { return strings.TrimSpace(v[name]) }

func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

type Notification struct {
	Kind    string
	Title   string
	Message string
}

type Field struct {
	Name        string
	Label       string
	Type        string // text, number, date, email, textarea, select, checkbox
	Required    bool
	Step        string
	Options     []string
	Placeholder string
}

type Column[T any] struct {
	Header  string
	Numeric bool
	Value   func(T) string
}

type Link struct {
	Label string
	Href  string
}

// Definition describes one resource screen. Update and Delete are nil for
// resources the backend only lists and creates.
type Definition[T any] struct {
	Name     string // URL segment, e.g. "income"
	Title    string // page title, e.g. "Income"
	Singular string // toast subject, e.g. "Income"
	Noun     string // error subject, e.g. "income record"
	Fields   []Field
	Columns  []Column[T]
	ID       func(T) int64
	ToForm   func(T) Values
	Links    func(companyID int64, rec T) []Link
	Defaults func() Values

	List   func(ctx context.Context, api *apiclient.Client, companyID int64) ([]T, error)
	Create func(ctx context.Context, api *apiclient.Client, companyID int64, form Values) error
	Update func(ctx context.Context, api *apiclient.Client, companyID, id int64, form Values) error
	Delete func(ctx context.Context, api *apiclient.Client, companyID, id int64) error
}

func (d *Definition[T]) ResourceName() string { return d.Name }
func (d *Definition[T]) ResourceTitle() string { return d.Title }

// NewScreen builds the per-session state for one company.
func (d *Definition[T]) NewScreen(api *apiclient.Client, companyID int64, logger *log.Logger) Handle {
	return New(d, api, companyID, logger)
}

// Resource is a Definition with its record type erased.
type Resource interface {
	ResourceName() string
	ResourceTitle() string
	NewScreen(api *apiclient.Client, companyID int64, logger *log.Logger) Handle
}

// Handle is a Screen with its record type erased, for handlers and templates.
type Handle interface {
	Name() string
	Title() string
	CompanyID() int64
	Load(ctx context.Context)
	Open()
	Edit(id int64) bool
	Close()
	Submit(ctx context.Context, id int64, form Values) (Notification, bool)
	Delete(ctx context.Context, id int64, confirmed bool) (Notification, bool)
	Table() Table
	Dialog() Dialog
}

type Cell struct {
	Text    string
	Numeric bool
}

type Row struct {
	ID    int64
	Cells []Cell
	Links []Link
}

type Header struct {
	Text    string
	Numeric bool
}

type Table struct {
	Headers   []Header
	Rows      []Row
	Loading   bool
	CanEdit   bool
	CanDelete bool
}

type DialogField struct {
	Field
	Value string
}

type Dialog struct {
	Open      bool
	Editing   bool
	EditingID int64
	Fields    []DialogField
}

// Screen is the state of one resource screen for one company in one session.
type Screen[T any] struct {
	def       *Definition[T]
	api       *apiclient.Client
	companyID int64
	logger    *log.Logger

	mu         sync.Mutex
	items      []T
	loading    bool
	dialogOpen bool
	editingID  int64
	form       Values
}

func New[T any](def *Definition[T], api *apiclient.Client, companyID int64, logger *log.Logger) *Screen[T] {
	return &Screen[T]{
		def:       def,
		api:       api,
		companyID: companyID,
		logger:    logger.WithComponent(log.ComponentScreen).With(log.FieldResource, def.Name, log.FieldCompanyID, companyID),
		items:     []T{},
		form:      Values{},
	}
}

func (s *Screen[T]) Name() string     { return s.def.Name }
func (s *Screen[T]) Title() string    { return s.def.Title }
func (s *Screen[T]) CompanyID() int64 { return s.companyID }

// Items returns a copy of the current list.
func (s *Screen[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// Load fetches the list. On failure the previous list stays.
func (s *Screen[T]) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

func (s *Screen[T]) loadLocked(ctx context.Context) {
	s.loading = true
	defer func() { s.loading = false }()

	items, err := s.def.List(ctx, s.api, s.companyID)
	if err != nil {
		s.logger.WarnContext(ctx, "List fetch failed, keeping previous items",
			log.FieldOperation, log.OpList, log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		return
	}
	s.items = items
}

// Open shows an empty create dialog.
func (s *Screen[T]) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogOpen = true
	s.editingID = 0
	s.form = s.defaults()
}

func (s *Screen[T]) defaults() Values {
	if s.def.Defaults != nil {
		return s.def.Defaults()
	}
	return Values{}
}

// Edit fills the dialog from the record with the given id and marks the
// screen as editing it. It reports false when the record is not in the list
// or the resource cannot be updated.
func (s *Screen[T]) Edit(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def.Update == nil {
		return false
	}
	for _, rec := range s.items {
		if s.def.ID(rec) == id {
			s.form = s.def.ToForm(rec)
			s.editingID = id
			s.dialogOpen = true
			return true
		}
	}
	return false
}

// Close hides the dialog and forgets any edit in progress.
func (s *Screen[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Screen[T]) closeLocked() {
	s.dialogOpen = false
	s.editingID = 0
	s.form = Values{}
}

// Submit creates a record when id is zero and updates record id otherwise.
// The id comes from the request, never from the dialog state. On success the
// dialog closes, the form clears and the list is re-fetched. On failure the
// dialog stays open with the submitted values.
func (s *Screen[T]) Submit(ctx context.Context, id int64, form Values) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form = form.clone()
	s.dialogOpen = true
	s.editingID = id

	var err error
	op := log.OpCreate
	if id != 0 {
		op = log.OpUpdate
		if s.def.Update == nil {
			s.closeLocked()
			return Notification{Kind: NoticeError, Title: "Error", Message: fmt.Sprintf("Editing %s is not supported.", s.def.Noun)}, false
		}
		err = s.def.Update(ctx, s.api, s.companyID, id, form)
	} else {
		err = s.def.Create(ctx, s.api, s.companyID, form)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Save failed", log.FieldOperation, op, log.FieldRecordID, id,
			log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		return s.failure("Error", fmt.Sprintf("Failed to save %s.", s.def.Noun), err), false
	}

	title := s.def.Singular + " added"
	if op == log.OpUpdate {
		title = s.def.Singular + " updated"
	}
	s.closeLocked()
	s.loadLocked(ctx)
	return Notification{Kind: NoticeSuccess, Title: title, Message: "Saved successfully."}, true
}

// Delete removes a record once the user has confirmed. Without confirmation
// nothing happens. On failure the list is left as it was.
func (s *Screen[T]) Delete(ctx context.Context, id int64, confirmed bool) (Notification, bool) {
	if !confirmed {
		return Notification{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.def.Delete == nil {
		return Notification{Kind: NoticeError, Title: "Error", Message: fmt.Sprintf("Deleting %s is not supported.", s.def.Noun)}, false
	}
	if err := s.def.Delete(ctx, s.api, s.companyID, id); err != nil {
		s.logger.WarnContext(ctx, "Delete failed", log.FieldOperation, log.OpDelete, log.FieldRecordID, id,
			log.FieldErrorType, apiclient.Kind(err), log.FieldError, err.Error())
		return s.failure("Error", fmt.Sprintf("Failed to delete %s.", s.def.Noun), err), false
	}
	if s.editingID == id {
		s.closeLocked()
	}
	s.loadLocked(ctx)
	return Notification{Kind: NoticeSuccess, Title: s.def.Singular + " deleted", Message: "Deleted successfully."}, true
}

// failure words the notification by error kind: validation problems are
// shown as-is, transport problems ask the user to check the connection.
func (s *Screen[T]) failure(title, prefix string, err error) Notification {
	msg := prefix + " Please check your connection."
	if apiclient.IsValidation(err) {
		msg = prefix + " " + validationMessage(err)
	} else if he := httpStatus(err); he != 0 {
		msg = fmt.Sprintf("%s The server answered %d.", prefix, he)
	}
	return Notification{Kind: NoticeError, Title: title, Message: msg}
}

// Table renders the list for templates.
func (s *Screen[T]) Table() Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Table{
		Loading:   s.loading,
		CanEdit:   s.def.Update != nil,
		CanDelete: s.def.Delete != nil,
		Rows:      make([]Row, 0, len(s.items)),
	}
	for _, c := range s.def.Columns {
		t.Headers = append(t.Headers, Header{Text: c.Header, Numeric: c.Numeric})
	}
	for _, rec := range s.items {
		row := Row{ID: s.def.ID(rec)}
		for _, c := range s.def.Columns {
			row.Cells = append(row.Cells, Cell{Text: c.Value(rec), Numeric: c.Numeric})
		}
		if s.def.Links != nil {
			row.Links = s.def.Links(s.companyID, rec)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Dialog renders the form for templates.
func (s *Screen[T]) Dialog() Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Dialog{Open: s.dialogOpen, Editing: s.editingID != 0, EditingID: s.editingID}
	for _, f := range s.def.Fields {
		d.Fields = append(d.Fields, DialogField{Field: f, Value: s.form[f.Name]})
	}
	return d
}

func validationMessage(err error) string {
	var ve *apiclient.ValidationError
	if errors.As(err, &ve) {
		err = ve.Err
	}
	msg := err.Error()
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func httpStatus(err error) int {
	var he *apiclient.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
