package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tour_booking/internal/apperror"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"

	"github.com/jackc/pgx/v5"
)

const (
	milesPerKm = 0.621371
	kmPerMile  = 1.609344
)

// TourWithReviews is a tour detail read together with its reviews.
type TourWithReviews struct {
	Tour    *model.Tour    `json:"tour"`
	Reviews []model.Review `json:"reviews"`
}

// TourService provides tour CRUD, statistics and geo lookups
type TourService interface {
	Create(ctx context.Context, req model.CreateTourRequest) (*model.Tour, error)
	Get(ctx context.Context, id int64) (*TourWithReviews, error)
	List(ctx context.Context, params url.Values) ([]map[string]any, error)
	Update(ctx context.Context, id int64, req model.UpdateTourRequest) (*model.Tour, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]model.TourStats, error)
	Within(ctx context.Context, distance, latlng, unit string) ([]model.Tour, error)
	Distances(ctx context.Context, latlng, unit string) ([]model.TourDistance, error)
}

type tourService struct {
	tours   repository.TourRepository
	reviews repository.ReviewRepository
}

// NewTourService creates a new TourService
func NewTourService(tours repository.TourRepository, reviews repository.ReviewRepository) TourService {
	return &tourService{tours: tours, reviews: reviews}
}

// Create validates and inserts a new tour
func (s *tourService) Create(ctx context.Context, req model.CreateTourRequest) (*model.Tour, error) {
	if req.PriceDiscount != nil && *req.PriceDiscount >= req.Price {
		return nil, apperror.Validation("discount price should be below the regular price")
	}

	tour := &model.Tour{
		Name:          req.Name,
		Duration:      req.Duration,
		MaxGroupSize:  req.MaxGroupSize,
		Difficulty:    req.Difficulty,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		Summary:       req.Summary,
		Description:   req.Description,
		StartLat:      req.StartLat,
		StartLng:      req.StartLng,
		StartAddress:  req.StartAddress,
		CreatedAt:     time.Now(),
	}
	if err := s.tours.Create(ctx, tour); err != nil {
		if errors.Is(err, repository.ErrDuplicateTourName) {
			return nil, apperror.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}
	return tour, nil
}

// Get fetches a tour with its reviews
func (s *tourService) Get(ctx context.Context, id int64) (*TourWithReviews, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	if tour == nil {
		return nil, apperror.NotFound("no tour found with that id")
	}

	reviews, err := s.reviews.FindByTour(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour reviews: %w", err)
	}
	return &TourWithReviews{Tour: tour, Reviews: reviews}, nil
}

// List runs the query pipeline over tours
func (s *tourService) List(ctx context.Context, params url.Values) ([]map[string]any, error) {
	tours, err := s.tours.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	return tours, nil
}

// Update applies a partial update. The price-discount check runs against
// the values the row would hold after the update, before anything is
// written.
func (s *tourService) Update(ctx context.Context, id int64, req model.UpdateTourRequest) (*model.Tour, error) {
	current, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	if current == nil {
		return nil, apperror.NotFound("no tour found with that id")
	}

	price := current.Price
	if req.Price != nil {
		price = *req.Price
	}
	discount := current.PriceDiscount
	if req.PriceDiscount != nil {
		discount = req.PriceDiscount
	}
	if discount != nil && *discount >= price {
		return nil, apperror.Validation("discount price should be below the regular price")
	}

	tour, err := s.tours.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTourName) {
			return nil, apperror.Validation(err.Error())
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	if tour == nil {
		return nil, apperror.NotFound("no tour found with that id")
	}
	return tour, nil
}

// Delete removes a tour
func (s *tourService) Delete(ctx context.Context, id int64) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no tour found with that id")
		}
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	return nil
}

// Stats aggregates tours by difficulty
func (s *tourService) Stats(ctx context.Context) ([]model.TourStats, error) {
	stats, err := s.tours.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", err)
	}
	return stats, nil
}

// parseLatLng splits a "lat,lng" path segment
func parseLatLng(latlng string) (float64, float64, error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, apperror.Validation("please provide latitude and longitude in the format lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, apperror.Validation("please provide latitude and longitude in the format lat,lng")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, apperror.Validation("please provide latitude and longitude in the format lat,lng")
	}
	return lat, lng, nil
}

// Within returns the tours starting within the given distance of a point
func (s *tourService) Within(ctx context.Context, distance, latlng, unit string) ([]model.Tour, error) {
	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	d, err := strconv.ParseFloat(distance, 64)
	if err != nil || d < 0 {
		return nil, apperror.Validation("please provide a valid distance")
	}

	radiusKm := d
	if unit == "mi" {
		radiusKm = d * kmPerMile
	}

	tours, err := s.tours.FindWithin(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to find tours within radius: %w", err)
	}
	return tours, nil
}

// Distances returns each tour's distance to a point, in the requested unit
func (s *tourService) Distances(ctx context.Context, latlng, unit string) ([]model.TourDistance, error) {
	lat, lng, err := parseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if unit == "mi" {
		multiplier = milesPerKm
	}

	distances, err := s.tours.Distances(ctx, lat, lng, multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour distances: %w", err)
	}
	return distances, nil
}
