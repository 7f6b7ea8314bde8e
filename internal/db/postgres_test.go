package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"example.com/cruddur/internal/domain"
)

func TestQueryArrayJSONWrapsAndDecodes(t *testing.T) {
	q := &fakeQuerier{value: []byte(`[{"handle":"andrewbrown","message":"cloud!"},{"handle":"bayko","message":"hi"}]`)}
	store := NewStore(q)

	records, err := store.QueryArrayJSON(context.Background(), "SELECT * FROM activities;", "arg")
	require.NoError(t, err)
	require.Equal(t, []domain.ActivityRecord{
		{"handle": "andrewbrown", "message": "cloud!"},
		{"handle": "bayko", "message": "hi"},
	}, records)

	require.Contains(t, q.sql, "array_to_json(array_agg(row_to_json(array_row)))")
	require.Contains(t, q.sql, "SELECT * FROM activities\n) array_row")
	require.Equal(t, []any{"arg"}, q.args)
}

func TestQueryArrayJSONEmptyArray(t *testing.T) {
	store := NewStore(&fakeQuerier{value: []byte(`[]`)})

	records, err := store.QueryArrayJSON(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestQueryArrayJSONPropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := NewStore(&fakeQuerier{err: boom}).QueryArrayJSON(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, boom)

	_, err = NewStore(&fakeQuerier{value: []byte(`{"not":"an array"}`)}).QueryArrayJSON(context.Background(), "SELECT 1")
	require.Error(t, err)
}

func TestQueryObjectJSON(t *testing.T) {
	q := &fakeQuerier{value: []byte(`{"uuid":"abc","handle":"andrewbrown"}`)}

	record, err := NewStore(q).QueryObjectJSON(context.Background(), "SELECT 1 WHERE uuid = $1", "abc")
	require.NoError(t, err)
	require.Equal(t, "andrewbrown", record.Handle())
	require.Contains(t, q.sql, "row_to_json(object_row)")

	record, err = NewStore(&fakeQuerier{err: pgx.ErrNoRows}).QueryObjectJSON(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.Empty(t, record)
}

func TestQueryCommit(t *testing.T) {
	id := uuid.New()
	q := &fakeQuerier{value: [16]byte(id)}

	got, err := NewStore(q).QueryCommit(context.Background(), "INSERT INTO activities (message) VALUES ($1) RETURNING uuid", "hello")
	require.NoError(t, err)
	require.Equal(t, id.String(), got)
	require.Equal(t, []any{"hello"}, q.args)
}

func TestQueryCommitRequiresReturning(t *testing.T) {
	q := &fakeQuerier{value: "x"}
	_, err := NewStore(q).QueryCommit(context.Background(), "DELETE FROM activities")
	require.Error(t, err)
	require.Empty(t, q.sql, "statement should not reach the database")
}

func TestQueryCommitNoRow(t *testing.T) {
	_, err := NewStore(&fakeQuerier{err: pgx.ErrNoRows}).QueryCommit(context.Background(), "INSERT INTO t VALUES (1) RETURNING id")
	require.ErrorIs(t, err, ErrNoReturnedRow)
}

type fakeQuerier struct {
	value any
	err   error
	sql   string
	args  []any
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql = sql
	f.args = args
	return fakeRow{value: f.value, err: f.err}
}

type fakeRow struct {
	value any
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *[]byte:
		*d = r.value.([]byte)
	case *any:
		*d = r.value
	default:
		return errors.New("unsupported scan target")
	}
	return nil
}
