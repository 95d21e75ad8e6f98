package models

import (
	"time"

	"github.com/samber/lo"
)

const (
	MinStars = 1
	MaxStars = 5

	// DefaultRating is reported for a provider nobody has reviewed yet.
	DefaultRating = 5.0
)

type Review struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	OrderID    int64     `gorm:"not null;uniqueIndex" json:"order_id"`
	CustomerID int64     `gorm:"not null;index" json:"customer_id"`
	ProviderID int64     `gorm:"not null;index" json:"provider_id"`
	Stars      int       `gorm:"not null;check:stars BETWEEN 1 AND 5" json:"stars"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProviderRating is the aggregate recomputed from all of a provider's reviews.
type ProviderRating struct {
	ProviderID    int64     `gorm:"primaryKey;autoIncrement:false" json:"provider_id"`
	AverageRating float64   `gorm:"not null" json:"average_rating"`
	TotalReviews  int64     `gorm:"not null" json:"total_reviews"`
	UpdatedAt     time.Time `json:"-"`
}

// AverageRating is the mean of the stars, or DefaultRating for no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return DefaultRating
	}
	total := lo.SumBy(reviews, func(r Review) int { return r.Stars })
	return float64(total) / float64(len(reviews))
}

// NewProviderRating builds the aggregate for a provider from its reviews.
func NewProviderRating(providerID int64, reviews []Review) ProviderRating {
	return ProviderRating{
		ProviderID:    providerID,
		AverageRating: AverageRating(reviews),
		TotalReviews:  int64(len(reviews)),
	}
}

func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}

type CreateReviewRequest struct {
	OrderID int64  `json:"order_id" binding:"required,min=1"`
	Stars   int    `json:"stars" binding:"required"`
	Content string `json:"content"`
}

type CreateReviewResponse struct {
	ReviewID int64  `json:"review_id"`
	OrderID  int64  `json:"order_id"`
	Stars    int    `json:"stars"`
	Content  string `json:"content"`
	Message  string `json:"message"`
}
