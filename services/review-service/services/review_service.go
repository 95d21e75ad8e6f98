package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/cache"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const errAlreadyReviewed = "This order has already been reviewed"

type ReviewList struct {
	Reviews []models.Review `json:"reviews"`
	Meta    MetaData        `json:"meta"`
}

type MetaData struct {
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalReviews int64 `json:"total_reviews"`
	HasMore      bool  `json:"has_more"`
}

type ReviewService interface {
	CreateReview(ctx context.Context, caller orderclient.Caller, req *models.CreateReviewRequest) (*models.CreateReviewResponse, error)
	GetProviderRating(ctx context.Context, providerID int64) (*models.ProviderRating, error)
	ListReviewsForProvider(ctx context.Context, providerID int64, page, limit int) (*ReviewList, error)
	GetReviewByOrder(ctx context.Context, orderID int64) (*models.Review, error)
}

type reviewServiceImpl struct {
	repo    repository.ReviewRepository
	orders  orderclient.Client
	ratings cache.RatingCache
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

// NewReviewService wires the service. ratings may be nil, in which case every
// rating read goes to the database.
func NewReviewService(repo repository.ReviewRepository, orders orderclient.Client, ratings cache.RatingCache, metrics *awspkg.MetricsClient, logger *zap.Logger) ReviewService {
	return &reviewServiceImpl{repo: repo, orders: orders, ratings: ratings, metrics: metrics, logger: logger}
}

func (s *reviewServiceImpl) CreateReview(ctx context.Context, caller orderclient.Caller, req *models.CreateReviewRequest) (*models.CreateReviewResponse, error) {
	order, err := s.orders.GetCustomerOrder(ctx, caller, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != caller.UserID {
		return nil, apperrors.Permission("You can only review your own orders")
	}
	if order.Status != "completed" {
		return nil, apperrors.Conflict("You can only review completed orders")
	}
	if order.PaymentStatus != "paid" {
		return nil, apperrors.Conflict("You can only review paid orders")
	}
	if !models.ValidStars(req.Stars) {
		return nil, apperrors.Validation("Stars must be between 1 and 5")
	}
	if order.ProviderID == nil {
		return nil, apperrors.Conflict("Order has no provider to review")
	}

	if _, err := s.repo.FindByOrder(ctx, req.OrderID); err == nil {
		return nil, apperrors.Conflict(errAlreadyReviewed)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Failed to check existing review", err)
	}

	review := &models.Review{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ProviderID: *order.ProviderID,
		Stars:      req.Stars,
		Content:    strings.TrimSpace(req.Content),
	}
	rating, err := s.repo.Create(ctx, review)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperrors.Conflict(errAlreadyReviewed)
	}
	if err != nil {
		s.logger.Error("Failed to create review", zap.Int64("order_id", req.OrderID), zap.Error(err))
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.logger.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("order_id", review.OrderID),
		zap.Int64("provider_id", review.ProviderID),
		zap.Float64("average_rating", rating.AverageRating),
	)
	s.cacheRating(ctx, rating)
	if s.metrics.IsEnabled() {
		go func() {
			_ = s.metrics.RecordCount(context.WithoutCancel(ctx), awspkg.MetricReviewsCreated, map[string]string{
				"stars": strconv.Itoa(review.Stars),
			})
		}()
	}

	return &models.CreateReviewResponse{
		ReviewID: review.ID,
		OrderID:  review.OrderID,
		Stars:    review.Stars,
		Content:  review.Content,
		Message:  "Review created successfully.",
	}, nil
}

// GetProviderRating reads through the cache. A cache failure is logged and
// the database answers instead.
func (s *reviewServiceImpl) GetProviderRating(ctx context.Context, providerID int64) (*models.ProviderRating, error) {
	if s.ratings != nil {
		cached, err := s.ratings.Get(ctx, providerID)
		if err != nil {
			s.logger.Warn("Rating cache read failed", zap.Int64("provider_id", providerID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	rating, err := s.repo.FindRating(ctx, providerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rating = &models.ProviderRating{ProviderID: providerID, AverageRating: models.DefaultRating}
	} else if err != nil {
		return nil, apperrors.Internal("Failed to load rating", err)
	}
	s.cacheRating(ctx, rating)
	return rating, nil
}

func (s *reviewServiceImpl) cacheRating(ctx context.Context, rating *models.ProviderRating) {
	if s.ratings == nil {
		return
	}
	if err := s.ratings.Set(ctx, rating); err != nil {
		s.logger.Warn("Rating cache write failed", zap.Int64("provider_id", rating.ProviderID), zap.Error(err))
	}
}

func (s *reviewServiceImpl) ListReviewsForProvider(ctx context.Context, providerID int64, page, limit int) (*ReviewList, error) {
	reviews, total, err := s.repo.ListByProvider(ctx, providerID, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to list reviews", err)
	}
	return &ReviewList{
		Reviews: reviews,
		Meta: MetaData{
			Page:         page,
			Limit:        limit,
			TotalReviews: total,
			HasMore:      int64(page*limit) < total,
		},
	}, nil
}

func (s *reviewServiceImpl) GetReviewByOrder(ctx context.Context, orderID int64) (*models.Review, error) {
	review, err := s.repo.FindByOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Review not found for this order")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load review", err)
	}
	return review, nil
}
