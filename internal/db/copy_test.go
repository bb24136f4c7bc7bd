package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emailCols = []string{"partyidentifier", "emailaddress", "run_guid"}

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "party_emails", emailCols, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"party_emails"}, emailCols).WillReturnResult(2)

	rows := [][]any{{"P1", "a@b.c", "r"}, {nil, "d@e.f", "r"}}
	n, err := CopyFrom(context.Background(), mock, "party_emails", emailCols, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"party_data", "party_emails"}, emailCols).WillReturnResult(1)

	n, err := CopyFromSchema(context.Background(), mock, "party_data", "party_emails", emailCols, [][]any{{"P1", "a@b.c", "r"}})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_EmptySchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"party_emails"}, emailCols).WillReturnResult(1)

	_, err = CopyFromSchema(context.Background(), mock, "", "party_emails", emailCols, [][]any{{"P1", "a@b.c", "r"}})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"party_data", "party_phones"}, []string{"phonenumber"}).WillReturnError(fmt.Errorf("permission denied"))

	_, err = CopyFromSchema(context.Background(), mock, "party_data", "party_phones", []string{"phonenumber"}, [][]any{{"555"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO party_data.party_phones")
	assert.NoError(t, mock.ExpectationsWereMet())
}
