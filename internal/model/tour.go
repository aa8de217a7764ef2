package model

import "time"

const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Tour represents a bookable tour listing
type Tour struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Duration        int       `json:"duration"` // In days
	MaxGroupSize    int       `json:"maxGroupSize"`
	Difficulty      string    `json:"difficulty"`
	RatingsAverage  float64   `json:"ratingsAverage"`
	RatingsQuantity int       `json:"ratingsQuantity"`
	Price           float64   `json:"price"`
	PriceDiscount   *float64  `json:"priceDiscount,omitempty"`
	Summary         string    `json:"summary"`
	Description     *string   `json:"description,omitempty"`
	ImageCover      *string   `json:"imageCover,omitempty"`
	Images          []string  `json:"images,omitempty"`
	StartLat        *float64  `json:"startLat,omitempty"`
	StartLng        *float64  `json:"startLng,omitempty"`
	StartAddress    *string   `json:"startAddress,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateTourRequest struct {
	Name          string   `json:"name" binding:"required"`
	Duration      int      `json:"duration" binding:"required,gt=0"`
	MaxGroupSize  int      `json:"maxGroupSize" binding:"required,gt=0"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	PriceDiscount *float64 `json:"priceDiscount"`
	Summary       string   `json:"summary" binding:"required"`
	Description   *string  `json:"description"`
	StartLat      *float64 `json:"startLat"`
	StartLng      *float64 `json:"startLng"`
	StartAddress  *string  `json:"startAddress"`
}

type UpdateTourRequest struct {
	Name          *string  `json:"name,omitempty"`
	Duration      *int     `json:"duration,omitempty" binding:"omitempty,gt=0"`
	MaxGroupSize  *int     `json:"maxGroupSize,omitempty" binding:"omitempty,gt=0"`
	Difficulty    *string  `json:"difficulty,omitempty" binding:"omitempty,oneof=easy medium difficult"`
	Price         *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	PriceDiscount *float64 `json:"priceDiscount,omitempty"`
	Summary       *string  `json:"summary,omitempty"`
	Description   *string  `json:"description,omitempty"`
	ImageCover    *string  `json:"-"`
	Images        []string `json:"-"`
	StartLat      *float64 `json:"startLat,omitempty"`
	StartLng      *float64 `json:"startLng,omitempty"`
	StartAddress  *string  `json:"startAddress,omitempty"`
}

// TourStats is an aggregate over tours grouped by difficulty
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// TourDistance is a tour paired with its distance from a reference point
type TourDistance struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
