package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	otelMocks "retreat/infras/otel/mocks"
	"retreat/infras/postgres"
	"retreat/shared/dto"
	"retreat/shared/model"
	"retreat/shared/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID     string `db:"id"`
	Status string `db:"status"`
	model.Metadata
}

const selectColumns = "records.id, records.status, records.created_at, records.modified_at, records.created_by, records.modified_by"

func newRepository(t *testing.T) (repository.Repository[record], sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	conn := sqlx.NewDb(db, "postgres")
	repo := repository.NewRepository[record]("record", "records", "id", &postgres.Connection{Read: conn, Write: conn}, otelMocks.NewOtel())

	return repo, mock
}

func rows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status", "created_at", "modified_at", "created_by", "modified_by"}).
		AddRow("rec_1", "initiated", now, now, "system", "system")
}

func TestInsert(t *testing.T) {
	repo, mock := newRepository(t)

	assert.Equal(t, []string{"id", "status", "created_at", "modified_at", "created_by", "modified_by"}, repo.InsertColumns)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records (id, status, created_at, modified_at, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $6)")).
		WithArgs("rec_1", "initiated", now, now, "system", "system").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), record{
		ID:       "rec_1",
		Status:   "initiated",
		Metadata: model.Metadata{CreatedAt: now, ModifiedAt: now, CreatedBy: "system", ModifiedBy: "system"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertError(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectExec("INSERT INTO records").WillReturnError(errors.New("duplicate key"))

	err := repo.Insert(context.Background(), record{ID: "rec_1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert data (record)")
}

func TestInsertDuplicate(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectExec("INSERT INTO records").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), record{ID: "rec_1"})

	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestGet(t *testing.T) {
	now := time.Now()
	query := regexp.QuoteMeta("SELECT " + selectColumns + " FROM records WHERE (id = $1)")

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(query).ExpectQuery().WithArgs("rec_1").WillReturnRows(rows(now))

		rec, err := repo.Get(context.Background(), dto.And(dto.Eq("id", "rec_1")))

		require.NoError(t, err)
		assert.Equal(t, "rec_1", rec.ID)
		assert.Equal(t, "initiated", rec.Status)
		assert.Equal(t, "system", rec.CreatedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(query).ExpectQuery().WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Get(context.Background(), dto.And(dto.Eq("id", "missing")))

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("filter required", func(t *testing.T) {
		repo, _ := newRepository(t)

		_, err := repo.Get(context.Background(), dto.And())

		assert.ErrorIs(t, err, repository.ErrRequiredFilter)
	})
}

func TestGetAll(t *testing.T) {
	now := time.Now()

	t.Run("sorted and paged", func(t *testing.T) {
		repo, mock := newRepository(t)

		query := regexp.QuoteMeta("SELECT " + selectColumns + " FROM records WHERE (status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3")
		mock.ExpectPrepare(query).ExpectQuery().WithArgs("initiated", 20, 20).WillReturnRows(rows(now))

		records, err := repo.GetAll(context.Background(),
			dto.QueryParams{Page: 2, Limit: 20, SortBy: "created_at", SortDir: dto.SortDirDesc},
			dto.And(dto.Eq("status", "initiated")),
		)

		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown sort column is ignored", func(t *testing.T) {
		repo, mock := newRepository(t)

		query := regexp.QuoteMeta("SELECT " + selectColumns + " FROM records LIMIT $1")
		mock.ExpectPrepare(query).ExpectQuery().WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		records, err := repo.GetAll(context.Background(),
			dto.QueryParams{Limit: 5, SortBy: "id; DROP TABLE records", SortDir: dto.SortDirAsc},
			dto.FilterGroup{},
		)

		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCount(t *testing.T) {
	repo, mock := newRepository(t)

	query := regexp.QuoteMeta("SELECT COUNT(records.id) FROM records WHERE (status IN ($1, $2))")
	mock.ExpectPrepare(query).ExpectQuery().WithArgs("paid", "confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background(), dto.And(dto.In("status", []string{"paid", "confirmed"})))

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestExist(t *testing.T) {
	repo, mock := newRepository(t)

	query := regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM records WHERE (id = $1))")
	mock.ExpectPrepare(query).ExpectQuery().WithArgs("rec_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exist, err := repo.Exist(context.Background(), dto.And(dto.Eq("id", "rec_1")))

	require.NoError(t, err)
	assert.True(t, exist)

	_, err = repo.Exist(context.Background(), dto.And())
	assert.ErrorIs(t, err, repository.ErrRequiredFilter)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepository(t)

	query := regexp.QuoteMeta("UPDATE records SET modified_by = $1, status = $2 WHERE (id = $3 AND status = $4)")
	mock.ExpectExec(query).WithArgs("webhook", "paid", "rec_1", "initiated").WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(),
		map[string]any{"status": "paid", "modified_by": "webhook"},
		dto.And(dto.Eq("id", "rec_1"), dto.Eq("status", "initiated")),
	)

	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.Update(context.Background(), map[string]any{"status": "paid"}, dto.And())
	assert.ErrorIs(t, err, repository.ErrRequiredFilter)
}

func TestWithinTx(t *testing.T) {
	t.Run("commit with row lock", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectBegin()
		mock.ExpectPrepare(regexp.QuoteMeta("SELECT " + selectColumns + " FROM records WHERE (id = $1) FOR UPDATE")).
			ExpectQuery().WithArgs("rec_1").WillReturnRows(rows(time.Now()))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET status = $1 WHERE (id = $2)")).
			WithArgs("paid", "rec_1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.WithinTx(context.Background(), func(tx *sqlx.Tx) error {
			rec, err := repo.GetForUpdateTx(context.Background(), tx, dto.And(dto.Eq("id", "rec_1")))
			if err != nil {
				return err
			}

			_, err = repo.UpdateTx(context.Background(), tx, map[string]any{"status": "paid"}, dto.And(dto.Eq("id", rec.ID)))

			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		sentinel := errors.New("conflict")
		err := repo.WithinTx(context.Background(), func(_ *sqlx.Tx) error { return sentinel })

		assert.ErrorIs(t, err, sentinel)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
