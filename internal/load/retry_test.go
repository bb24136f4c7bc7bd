package load

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"serialization", eris.Wrap(&pgconn.PgError{Code: "40001"}, "load: copy"), true},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"connection reset", fmt.Errorf("copy: %w", syscall.ECONNRESET), true},
		{"broken pipe text", errors.New("write: broken pipe"), true},
		{"plain", errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetryVal_RetriesTransient(t *testing.T) {
	calls := 0
	n, err := retryVal(context.Background(), fastRetry, "op", func(context.Context) (int64, error) {
		calls++
		if calls < 3 {
			return 0, &pgconn.PgError{Code: "40P01"}
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, 3, calls)
}

func TestRetryVal_StopsOnPermanent(t *testing.T) {
	calls := 0
	_, err := retryVal(context.Background(), fastRetry, "op", func(context.Context) (int64, error) {
		calls++
		return 0, errors.New("syntax error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryVal_GivesUp(t *testing.T) {
	calls := 0
	_, err := retryVal(context.Background(), fastRetry, "op", func(context.Context) (int64, error) {
		calls++
		return 0, &pgconn.PgError{Code: "53300"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryVal_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := retryVal(ctx, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour}, "op", func(context.Context) (int64, error) {
		calls++
		cancel()
		return 0, &pgconn.PgError{Code: "40P01"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 4 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, backoff(0, cfg))
	assert.Equal(t, 2*time.Second, backoff(1, cfg))
	assert.Equal(t, 4*time.Second, backoff(5, cfg))
}

func TestPostgres_RetriesDeadlock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tbl := emailTable()
	mock.ExpectBegin().WillReturnError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
	expectReplace(mock, "party_data", "party_emails")
	mock.ExpectCopyFrom(pgx.Identifier{"party_data", "party_emails"}, tbl.Header).WillReturnResult(3)
	mock.ExpectCommit()

	sink := NewPostgres(mock, testRun(), PostgresOptions{Schema: "party_data", Retry: fastRetry})
	_, err = sink.Write(context.Background(), tbl)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
