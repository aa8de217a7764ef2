package model

import "time"

// Review represents a user's review of a tour. UserName and UserPhoto are
// joined from the users table on reads.
type Review struct {
	ID        int64     `json:"id"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	TourID    int64     `json:"tour_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UserName  *string   `json:"user_name,omitempty"`
	UserPhoto *string   `json:"user_photo,omitempty"`
}

type CreateReviewRequest struct {
	Review string `json:"review" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	TourID int64  `json:"tour_id"` // Defaulted from the nested route when absent
}

type UpdateReviewRequest struct {
	Review *string `json:"review,omitempty"`
	Rating *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
}
