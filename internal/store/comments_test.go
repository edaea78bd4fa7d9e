package store

import (
	"context"
	"testing"
	"time"

	"snapfeed-backend/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentStoreCreateMissingPost(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO comments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "comments_post_id_fkey"})

	comment := &models.Comment{ID: "c1", PostID: "missing", UserID: "u1", Body: "hi", CreatedAt: time.Now()}
	err = NewCommentStore(mock).Create(context.Background(), comment)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentStoreListByPost(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	base := time.Now()
	rows := pgxmock.NewRows([]string{"id", "post_id", "user_id", "body", "created_at"}).
		AddRow("c1", "p1", "u1", "first", base).
		AddRow("c2", "p1", "u2", "second", base.Add(time.Minute))

	mock.ExpectQuery("FROM comments").
		WithArgs("p1").
		WillReturnRows(rows)

	comments, err := NewCommentStore(mock).ListByPost(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}
