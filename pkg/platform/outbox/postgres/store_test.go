package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/sentinel"
	"gatekeeper/pkg/platform/outbox"
)

func TestFetchUnprocessedCapsBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, aggregate_type.*FROM outbox.*FOR UPDATE SKIP LOCKED").
		WithArgs(maxBatch).
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at", "processed_at"}).
			AddRow(id.String(), "identity", "abc", "role_claims_changed", []byte(`{}`), created, nil))

	entries, err := New(db).FetchUnprocessed(context.Background(), 5000)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.True(t, entries[0].IsPending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkProcessedMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE outbox SET processed_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = New(db).MarkProcessed(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendTxWritesInsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	entry := outbox.NewEntry("identity", "abc", "role_claims_changed", []byte(`{"role":"Editor"}`), time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(entry.ID, entry.AggregateType, entry.AggregateID, entry.EventType, entry.Payload, entry.CreatedAt).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = AppendTx(context.Background(), tx, entry)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
