package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsflash/domain"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, ""), mock
}

func TestRepository_Ensure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "kv_cache"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Ensure(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetDecodesValue(t *testing.T) {
	repo, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"value"}).
		AddRow([]byte(`{"items":[{"id":7,"time":"10:00","important":1,"data":{"title":"x"}}],"lastUpdate":"2024-01-01 10:00:00"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "kv_cache" WHERE key = $1`)).
		WithArgs("news").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "news")

	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "7", got.Items[0].ID)
	assert.Equal(t, 1, got.Items[0].Importance)
	assert.Equal(t, "2024-01-01 10:00:00", got.LastUpdate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetMissingKey(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "kv_cache"`)).
		WithArgs("news").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Get(context.Background(), "news")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_GetCorruptValue(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "kv_cache"`)).
		WithArgs("news").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{not json`)))

	_, err := repo.Get(context.Background(), "news")
	assert.Error(t, err)
}

func TestRepository_SetUpserts(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kv_cache" (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE`)).
		WithArgs("news", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Set(context.Background(), "news", &domain.CacheData{Items: []domain.NewsItem{{ID: "1"}}})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetNilDeletes(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "kv_cache" WHERE key = $1`)).
		WithArgs("news").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(context.Background(), "news", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetPropagatesErrors(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kv_cache"`)).
		WillReturnError(errors.New("connection reset"))

	err := repo.Set(context.Background(), "news", &domain.CacheData{})
	assert.EqualError(t, err, "connection reset")
}

func TestNew_QuotesCustomTable(t *testing.T) {
	repo := New(nil, `odd"name`)
	assert.Equal(t, `"odd""name"`, repo.table)
}
