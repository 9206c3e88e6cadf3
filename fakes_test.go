package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

type fakeDriver struct {
	handle     *fakeHandle
	openErr    error
	dsn        string
	username   string
	passphrase string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{handle: newFakeHandle()}
}

func (d *fakeDriver) Open(ctx context.Context, dsn string, username string, passphrase string) (Handle, error) {
	d.dsn, d.username, d.passphrase = dsn, username, passphrase
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.handle, nil
}

type fakeHandle struct {
	attributes     Attributes
	attributeOrder []Attribute
	attributeErr   error
	prepareErr     error
	statements     map[string]*fakeStatement
	prepared       []string
	beginErr       error
	commitErr      error
	rollbackErr    error
	lastID         string
	lastIDErr      error
	begins         int
	commits        int
	rollbacks      int
	closed         bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		attributes: Attributes{},
		statements: map[string]*fakeStatement{},
	}
}

func (h *fakeHandle) statement(query string) *fakeStatement {
	st, ok := h.statements[query]
	if !ok {
		st = &fakeStatement{}
		h.statements[query] = st
	}
	return st
}

func (h *fakeHandle) SetAttribute(key Attribute, value any) error {
	if h.attributeErr != nil {
		return h.attributeErr
	}
	h.attributes[key] = value
	h.attributeOrder = append(h.attributeOrder, key)
	return nil
}

func (h *fakeHandle) Prepare(ctx context.Context, query string) (Statement, error) {
	if h.prepareErr != nil {
		return nil, h.prepareErr
	}
	h.prepared = append(h.prepared, query)
	return h.statement(query), nil
}

func (h *fakeHandle) Begin(ctx context.Context) error {
	h.begins++
	return h.beginErr
}

func (h *fakeHandle) Commit() error {
	h.commits++
	return h.commitErr
}

func (h *fakeHandle) Rollback() error {
	h.rollbacks++
	return h.rollbackErr
}

func (h *fakeHandle) LastInsertID() (string, error) {
	return h.lastID, h.lastIDErr
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

type fakeStatement struct {
	execErr       error
	queryErr      error
	fetchModeErr  error
	fetchErr      error
	rows          []Row
	pos           int
	args          [][]any
	fetchMode     FetchMode
	fetchAllCalls int
	fetchCalls    int
	closed        bool
}

func (s *fakeStatement) Exec(ctx context.Context, args ...any) error {
	s.args = append(s.args, args)
	return s.execErr
}

func (s *fakeStatement) Query(ctx context.Context, args ...any) error {
	s.args = append(s.args, args)
	return s.queryErr
}

func (s *fakeStatement) SetFetchMode(mode FetchMode) error {
	s.fetchMode = mode
	return s.fetchModeErr
}

func (s *fakeStatement) RowCount() int64 {
	return int64(len(s.rows))
}

func (s *fakeStatement) FetchAll() ([]Row, error) {
	s.fetchAllCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	result := s.rows[s.pos:]
	s.pos = len(s.rows)
	return result, nil
}

func (s *fakeStatement) Fetch() (Row, bool, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, false, s.fetchErr
	}
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	s.pos++
	return s.rows[s.pos-1], true, nil
}

func (s *fakeStatement) Close() error {
	s.closed = true
	return nil
}

func driverError(state string, code int, msg string) error {
	return &DriverError{Info: ErrorInfo{SQLState: state, Code: code, Message: msg}}
}

func testConfiguration() *Configuration {
	return NewConfigurationBuilder(DriverMySQL).
		Host("localhost").
		DatabaseName("app").
		Credentials("user", "secret").
		MustBuild()
}

func newTestConnector(t *testing.T, d *fakeDriver) *Connector {
	c, err := NewConnector(ctx, testConfiguration(), d)
	require.NoError(t, err)
	return c
}
