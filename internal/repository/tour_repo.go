package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"tour_booking/internal/model"
	"tour_booking/internal/query"

	"github.com/jackc/pgx/v5"
)

var (
	ErrDuplicateTourName = errors.New("a tour with this name already exists")
)

const tourColumns = `id, name, duration, max_group_size, difficulty, ratings_average, ratings_quantity, price, price_discount, summary, description, image_cover, images, start_lat, start_lng, start_address, created_at`

var tourColumnSet = query.NewColumnSet(
	map[string]string{
		"name":            "name",
		"duration":        "duration",
		"maxGroupSize":    "max_group_size",
		"difficulty":      "difficulty",
		"ratingsAverage":  "ratings_average",
		"ratingsQuantity": "ratings_quantity",
		"price":           "price",
		"summary":         "summary",
		"createdAt":       "created_at",
	},
	[]string{
		"id", "name", "duration", "max_group_size", "difficulty",
		"ratings_average", "ratings_quantity", "price", "summary",
		"image_cover", "created_at",
	},
	"created_at DESC",
)

// haversineKm computes the great-circle distance in kilometers between
// ($1, $2) and a tour's start point.
const haversineKm = `6371 * acos(
    LEAST(1.0,
        cos(radians($1)) * cos(radians(start_lat)) * cos(radians(start_lng) - radians($2)) +
        sin(radians($1)) * sin(radians(start_lat))
    ))`

// TourRepository defines operations for tour data
type TourRepository interface {
	Create(ctx context.Context, tour *model.Tour) error
	FindByID(ctx context.Context, id int64) (*model.Tour, error)
	FindAll(ctx context.Context, params url.Values) ([]map[string]any, error)
	Update(ctx context.Context, id int64, req model.UpdateTourRequest) (*model.Tour, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) ([]model.TourStats, error)
	FindWithin(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error)
	Distances(ctx context.Context, lat, lng, multiplier float64) ([]model.TourDistance, error)
}

type tourRepository struct {
	db DB
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db DB) TourRepository {
	return &tourRepository{db: db}
}

func scanTour(row pgx.Row) (*model.Tour, error) {
	t := &model.Tour{}
	err := row.Scan(
		&t.ID, &t.Name, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
		&t.Summary, &t.Description, &t.ImageCover, &t.Images,
		&t.StartLat, &t.StartLng, &t.StartAddress, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan tour: %w", err)
	}
	return t, nil
}

// Create inserts a new tour
func (r *tourRepository) Create(ctx context.Context, t *model.Tour) error {
	sql := `INSERT INTO tours (name, duration, max_group_size, difficulty, price, price_discount, summary, description, start_lat, start_lng, start_address, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
            RETURNING id, ratings_average, ratings_quantity, images`
	err := r.db.QueryRow(ctx, sql,
		t.Name, t.Duration, t.MaxGroupSize, t.Difficulty, t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.StartLat, t.StartLng, t.StartAddress, t.CreatedAt,
	).Scan(&t.ID, &t.RatingsAverage, &t.RatingsQuantity, &t.Images)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTourName
		}
		return fmt.Errorf("failed to create tour: %w", err)
	}
	return nil
}

// FindByID retrieves a tour by its ID
func (r *tourRepository) FindByID(ctx context.Context, id int64) (*model.Tour, error) {
	sql := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`
	return scanTour(r.db.QueryRow(ctx, sql, id))
}

// FindAll lists tours through the query pipeline
func (r *tourRepository) FindAll(ctx context.Context, params url.Values) ([]map[string]any, error) {
	base := psql.Select().From("tours")
	f := query.New(base, params, tourColumnSet)
	return queryMaps(ctx, r.db, f.Filter().Sort().LimitFields().Paginate().Builder())
}

// Update applies a partial update and returns the new row
func (r *tourRepository) Update(ctx context.Context, id int64, req model.UpdateTourRequest) (*model.Tour, error) {
	b := psql.Update("tours").Where("id = ?", id).Suffix("RETURNING " + tourColumns)
	changed := false
	set := func(col string, v any) {
		b = b.Set(col, v)
		changed = true
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Duration != nil {
		set("duration", *req.Duration)
	}
	if req.MaxGroupSize != nil {
		set("max_group_size", *req.MaxGroupSize)
	}
	if req.Difficulty != nil {
		set("difficulty", *req.Difficulty)
	}
	if req.Price != nil {
		set("price", *req.Price)
	}
	if req.PriceDiscount != nil {
		set("price_discount", *req.PriceDiscount)
	}
	if req.Summary != nil {
		set("summary", *req.Summary)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.ImageCover != nil {
		set("image_cover", *req.ImageCover)
	}
	if req.Images != nil {
		set("images", req.Images)
	}
	if req.StartLat != nil {
		set("start_lat", *req.StartLat)
	}
	if req.StartLng != nil {
		set("start_lng", *req.StartLng)
	}
	if req.StartAddress != nil {
		set("start_address", *req.StartAddress)
	}
	if !changed {
		return r.FindByID(ctx, id)
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tour update: %w", err)
	}
	tour, err := scanTour(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicateTourName
	}
	return tour, err
}

// Delete removes a tour; reviews cascade at the storage layer
func (r *tourRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Stats aggregates well-rated tours by difficulty, cheapest group first
func (r *tourRepository) Stats(ctx context.Context) ([]model.TourStats, error) {
	sql := `SELECT UPPER(difficulty), COUNT(*), COALESCE(SUM(ratings_quantity), 0),
                   COALESCE(AVG(ratings_average), 0), COALESCE(AVG(price), 0),
                   COALESCE(MIN(price), 0), COALESCE(MAX(price), 0)
            FROM tours
            WHERE ratings_average >= 4.5
            GROUP BY difficulty
            ORDER BY AVG(price)`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour stats: %w", err)
	}
	defer rows.Close()

	var stats []model.TourStats
	for rows.Next() {
		var s model.TourStats
		if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tour stats: %w", err)
	}
	return stats, nil
}

// FindWithin returns tours whose start point lies within radiusKm of the
// given coordinates
func (r *tourRepository) FindWithin(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error) {
	sql := `SELECT ` + tourColumns + ` FROM tours
            WHERE start_lat IS NOT NULL AND start_lng IS NOT NULL
              AND ` + haversineKm + ` <= $3`
	rows, err := r.db.Query(ctx, sql, lat, lng, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours within radius: %w", err)
	}
	defer rows.Close()

	var tours []model.Tour
	for rows.Next() {
		var t model.Tour
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Duration, &t.MaxGroupSize, &t.Difficulty,
			&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &t.PriceDiscount,
			&t.Summary, &t.Description, &t.ImageCover, &t.Images,
			&t.StartLat, &t.StartLng, &t.StartAddress, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tour row: %w", err)
		}
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tour rows: %w", err)
	}
	return tours, nil
}

// Distances returns every located tour with its distance from the given
// point, nearest first. multiplier converts from kilometers.
func (r *tourRepository) Distances(ctx context.Context, lat, lng, multiplier float64) ([]model.TourDistance, error) {
	sql := `SELECT id, name, ` + haversineKm + ` * $3 AS distance
            FROM tours
            WHERE start_lat IS NOT NULL AND start_lng IS NOT NULL
            ORDER BY distance`
	rows, err := r.db.Query(ctx, sql, lat, lng, multiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour distances: %w", err)
	}
	defer rows.Close()

	var distances []model.TourDistance
	for rows.Next() {
		var d model.TourDistance
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan tour distance: %w", err)
		}
		distances = append(distances, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tour distances: %w", err)
	}
	return distances, nil
}
