package sqlqueue

import (
	"context"
	"errors"
	"strings"
)

type fakeSQLError struct {
	state   string
	message string
}

func (e *fakeSQLError) Error() string {
	return e.message
}

// fakeBackend records every batch instead of talking to a server
type fakeBackend struct {
	connects        int
	connectErr      error
	batches         []string
	wantResults     []bool
	results         []*RawResult
	execErr         error
	lastInsertId    int64
	lastInsertIdErr error
	closes          int
	closeErr        error
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Name() string {
	return "fake"
}

func (f *fakeBackend) Connect(ctx context.Context) error {
	f.connects++
	return f.connectErr
}

func (f *fakeBackend) BeginStatement(modes string) string {
	if modes != "" {
		return "BEGIN " + modes
	}
	return "BEGIN"
}

func (f *fakeBackend) Execute(ctx context.Context, batch string, wantResult bool) (*RawResult, error) {
	f.batches = append(f.batches, batch)
	f.wantResults = append(f.wantResults, wantResult)
	if err := f.execErr; err != nil {
		f.execErr = nil
		return nil, err
	}
	if len(f.results) > 0 {
		r := f.results[0]
		f.results = f.results[1:]
		return r, nil
	}
	return &RawResult{}, nil
}

func (f *fakeBackend) Escape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (f *fakeBackend) LastInsertId(ctx context.Context) (int64, error) {
	return f.lastInsertId, f.lastInsertIdErr
}

func (f *fakeBackend) Close(ctx context.Context) error {
	f.closes++
	return f.closeErr
}

func (f *fakeBackend) Translate(err error) (string, string) {
	var sqlErr *fakeSQLError
	if errors.As(err, &sqlErr) {
		return sqlErr.state, sqlErr.message
	}
	return "", err.Error()
}
