package repository

import (
	"context"
	"net/url"
	"regexp"
	"testing"
	"time"

	"tour_booking/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository_Create_DuplicatePair(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO reviews`)).
		WithArgs("Great tour!", 5, int64(1), int64(2)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := NewReviewRepository(mock)
	err = repo.Create(context.Background(), &model.Review{Review: "Great tour!", Rating: 5, TourID: 1, UserID: 2})

	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_RecalcTourRatings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg"}).AddRow(3, 4.0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tours SET ratings_quantity = $1, ratings_average = $2 WHERE id = $3`)).
		WithArgs(3, 4.0, int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewReviewRepository(mock)
	require.NoError(t, repo.RecalcTourRatings(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_RecalcTourRatings_NoReviewsFallsBackToDefault(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1`)).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg"}).AddRow(0, 0.0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tours SET ratings_quantity = $1, ratings_average = $2 WHERE id = $3`)).
		WithArgs(0, 4.5, int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewReviewRepository(mock)
	require.NoError(t, repo.RecalcTourRatings(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_FindAll_NestedScopesToTour(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tourID := int64(4)
	expected := `SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, u.name AS user_name, u.photo AS user_photo FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.tour_id = $1 ORDER BY r.created_at DESC LIMIT 100 OFFSET 0`
	mock.ExpectQuery(regexp.QuoteMeta(expected)).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "review", "rating", "tour_id", "user_id", "created_at", "user_name", "user_photo"}).
			AddRow(int64(1), "Nice", 4, tourID, int64(2), time.Now(), "Alice", nil))

	repo := NewReviewRepository(mock)
	rows, err := repo.FindAll(context.Background(), url.Values{}, &tourID)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0]["user_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Delete_ReturnsTourID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM reviews WHERE id = $1 RETURNING tour_id`)).
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows([]string{"tour_id"}).AddRow(int64(4)))

	repo := NewReviewRepository(mock)
	tourID, err := repo.Delete(context.Background(), 11)

	require.NoError(t, err)
	assert.Equal(t, int64(4), tourID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
