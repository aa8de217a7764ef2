package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"tour_booking/internal/model"
	"tour_booking/internal/query"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var (
	ErrDuplicateReview = errors.New("you have already reviewed this tour")
)

const reviewColumns = `r.id, r.review, r.rating, r.tour_id, r.user_id, r.created_at, u.name, u.photo`

var reviewColumnSet = query.NewColumnSet(
	map[string]string{
		"review":    "r.review",
		"rating":    "r.rating",
		"tour_id":   "r.tour_id",
		"user_id":   "r.user_id",
		"createdAt": "r.created_at",
	},
	[]string{
		"r.id", "r.review", "r.rating", "r.tour_id", "r.user_id", "r.created_at",
		"u.name AS user_name", "u.photo AS user_photo",
	},
	"r.created_at DESC",
)

// ratingDefault is the value a tour falls back to when its last review is
// removed.
const ratingDefault = 4.5

// ReviewRepository defines operations for review data, including the rating
// recomputation every review write must trigger.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id int64) (*model.Review, error)
	FindByTour(ctx context.Context, tourID int64) ([]model.Review, error)
	FindAll(ctx context.Context, params url.Values, tourID *int64) ([]map[string]any, error)
	Update(ctx context.Context, id int64, req model.UpdateReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, id int64) (tourID int64, err error)
	RecalcTourRatings(ctx context.Context, tourID int64) error
}

type reviewRepository struct {
	db DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func scanReview(row pgx.Row) (*model.Review, error) {
	rv := &model.Review{}
	err := row.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.CreatedAt, &rv.UserName, &rv.UserPhoto)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return rv, nil
}

// Create inserts a new review. The (tour, user) uniqueness constraint
// surfaces as ErrDuplicateReview.
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	sql := `INSERT INTO reviews (review, rating, tour_id, user_id)
            VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql, review.Review, review.Rating, review.TourID, review.UserID).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// FindByID retrieves a review with its author's name and photo joined in
func (r *reviewRepository) FindByID(ctx context.Context, id int64) (*model.Review, error) {
	sql := `SELECT ` + reviewColumns + ` FROM reviews r
            JOIN users u ON u.id = r.user_id
            WHERE r.id = $1`
	return scanReview(r.db.QueryRow(ctx, sql, id))
}

// FindByTour retrieves all reviews for a tour, newest first
func (r *reviewRepository) FindByTour(ctx context.Context, tourID int64) ([]model.Review, error) {
	sql := `SELECT ` + reviewColumns + ` FROM reviews r
            JOIN users u ON u.id = r.user_id
            WHERE r.tour_id = $1
            ORDER BY r.created_at DESC`
	rows, err := r.db.Query(ctx, sql, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews by tour: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.CreatedAt, &rv.UserName, &rv.UserPhoto); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, nil
}

// FindAll lists reviews through the query pipeline, scoped to a tour when
// reached via the nested route
func (r *reviewRepository) FindAll(ctx context.Context, params url.Values, tourID *int64) ([]map[string]any, error) {
	base := psql.Select().From("reviews r").Join("users u ON u.id = r.user_id")
	if tourID != nil {
		base = base.Where(sq.Eq{"r.tour_id": *tourID})
	}
	f := query.New(base, params, reviewColumnSet)
	return queryMaps(ctx, r.db, f.Filter().Sort().LimitFields().Paginate().Builder())
}

// Update applies a partial update and returns the review with author fields
func (r *reviewRepository) Update(ctx context.Context, id int64, req model.UpdateReviewRequest) (*model.Review, error) {
	b := psql.Update("reviews").Where("id = ?", id).Suffix("RETURNING id")
	changed := false
	if req.Review != nil {
		b = b.Set("review", *req.Review)
		changed = true
	}
	if req.Rating != nil {
		b = b.Set("rating", *req.Rating)
		changed = true
	}
	if !changed {
		return r.FindByID(ctx, id)
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review update: %w", err)
	}
	var updatedID int64
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return r.FindByID(ctx, updatedID)
}

// Delete removes a review, returning the tour it belonged to so ratings can
// be recomputed
func (r *reviewRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var tourID int64
	err := r.db.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING tour_id`, id).Scan(&tourID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, pgx.ErrNoRows
		}
		return 0, fmt.Errorf("failed to delete review: %w", err)
	}
	return tourID, nil
}

// RecalcTourRatings recomputes a tour's ratings average and count from its
// reviews. A tour with no reviews goes back to 0 ratings at the 4.5 default.
func (r *reviewRepository) RecalcTourRatings(ctx context.Context, tourID int64) error {
	var quantity int
	var average float64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE tour_id = $1`, tourID,
	).Scan(&quantity, &average)
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	if quantity == 0 {
		average = ratingDefault
	}

	_, err = r.db.Exec(ctx,
		`UPDATE tours SET ratings_quantity = $1, ratings_average = $2 WHERE id = $3`,
		quantity, average, tourID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tour ratings: %w", err)
	}
	return nil
}
