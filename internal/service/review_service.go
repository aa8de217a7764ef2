package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"tour_booking/internal/apperror"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"

	"github.com/jackc/pgx/v5"
)

// ReviewService provides review CRUD. Every write ends with an explicit
// rating recomputation on the reviewed tour.
type ReviewService interface {
	Create(ctx context.Context, userID int64, req model.CreateReviewRequest) (*model.Review, error)
	Get(ctx context.Context, id int64) (*model.Review, error)
	List(ctx context.Context, params url.Values, tourID *int64) ([]map[string]any, error)
	Update(ctx context.Context, id int64, req model.UpdateReviewRequest) (*model.Review, error)
	Delete(ctx context.Context, id int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
}

// NewReviewService creates a new ReviewService
func NewReviewService(reviews repository.ReviewRepository) ReviewService {
	return &reviewService{reviews: reviews}
}

// recalc updates the tour's rating aggregate; a failure here does not undo
// the review write, it is logged and the response proceeds.
func (s *reviewService) recalc(ctx context.Context, tourID int64) {
	if err := s.reviews.RecalcTourRatings(ctx, tourID); err != nil {
		log.Printf("Failed to recompute ratings for tour %d: %v", tourID, err)
	}
}

// Create stores a review for the authenticated user
func (s *reviewService) Create(ctx context.Context, userID int64, req model.CreateReviewRequest) (*model.Review, error) {
	if req.TourID == 0 {
		return nil, apperror.Validation("review must belong to a tour")
	}

	review := &model.Review{
		Review: req.Review,
		Rating: req.Rating,
		TourID: req.TourID,
		UserID: userID,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.recalc(ctx, review.TourID)
	return review, nil
}

// Get fetches a single review
func (s *reviewService) Get(ctx context.Context, id int64) (*model.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	if review == nil {
		return nil, apperror.NotFound("no review found with that id")
	}
	return review, nil
}

// List runs the query pipeline over reviews, scoped to a tour when nested
func (s *reviewService) List(ctx context.Context, params url.Values, tourID *int64) ([]map[string]any, error) {
	reviews, err := s.reviews.FindAll(ctx, params, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// Update applies a partial review update and recomputes the tour's ratings
func (s *reviewService) Update(ctx context.Context, id int64, req model.UpdateReviewRequest) (*model.Review, error) {
	review, err := s.reviews.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if review == nil {
		return nil, apperror.NotFound("no review found with that id")
	}

	s.recalc(ctx, review.TourID)
	return review, nil
}

// Delete removes a review and recomputes the tour's ratings
func (s *reviewService) Delete(ctx context.Context, id int64) error {
	tourID, err := s.reviews.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no review found with that id")
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.recalc(ctx, tourID)
	return nil
}
