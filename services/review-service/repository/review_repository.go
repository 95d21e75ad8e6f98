package repository

import (
	"context"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const Source = "review-service"

type ReviewRepository interface {
	// Create inserts the review and recomputes the provider's rating in the
	// same transaction, writing review.created and rating.updated.
	Create(ctx context.Context, review *models.Review) (*models.ProviderRating, error)
	FindByOrder(ctx context.Context, orderID int64) (*models.Review, error)
	ListByProvider(ctx context.Context, providerID int64, page, limit int) ([]models.Review, int64, error)
	FindRating(ctx context.Context, providerID int64) (*models.ProviderRating, error)
}

type gormReviewRepo struct {
	db *gorm.DB
}

func NewGormReviewRepo(db *gorm.DB) ReviewRepository {
	return &gormReviewRepo{db: db}
}

func (r *gormReviewRepo) Create(ctx context.Context, review *models.Review) (*models.ProviderRating, error) {
	var rating models.ProviderRating
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Held until commit so concurrent reviews of one provider recompute in turn.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", review.ProviderID).Error; err != nil {
			return err
		}
		if err := tx.Create(review).Error; err != nil {
			return err
		}

		var reviews []models.Review
		if err := tx.Where("provider_id = ?", review.ProviderID).Find(&reviews).Error; err != nil {
			return err
		}
		rating = models.NewProviderRating(review.ProviderID, reviews)

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"average_rating", "total_reviews", "updated_at"}),
		}).Create(&rating).Error; err != nil {
			return err
		}

		if _, err := outbox.Enqueue(tx, Source, events.ReviewCreated{
			ReviewID:   review.ID,
			OrderID:    review.OrderID,
			CustomerID: review.CustomerID,
			ProviderID: review.ProviderID,
			Stars:      review.Stars,
			Content:    review.Content,
		}); err != nil {
			return err
		}
		_, err := outbox.Enqueue(tx, Source, events.RatingUpdated{
			ProviderID:    rating.ProviderID,
			AverageRating: rating.AverageRating,
			TotalReviews:  rating.TotalReviews,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *gormReviewRepo) FindByOrder(ctx context.Context, orderID int64) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *gormReviewRepo) ListByProvider(ctx context.Context, providerID int64, page, limit int) ([]models.Review, int64, error) {
	var reviews []models.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("provider_id = ?", providerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *gormReviewRepo) FindRating(ctx context.Context, providerID int64) (*models.ProviderRating, error) {
	var rating models.ProviderRating
	if err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}
