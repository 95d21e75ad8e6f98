//go:build integration

package integration

import (
	"sync"
	"testing"

	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/common/database"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/repository"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ratingSuite struct {
	suite.Suite

	container *tcpostgres.PostgresContainer
	db        *gorm.DB
	repo      repository.ReviewRepository
}

func TestRatingSuite(t *testing.T) {
	suite.Run(t, new(ratingSuite))
}

func (s *ratingSuite) SetupSuite() {
	ctx := s.T().Context()

	var err error
	s.container, err = tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("reviews"),
		tcpostgres.WithUsername("reviews"),
		tcpostgres.WithPassword("reviews"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)

	dsn, err := s.container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = gorm.Open(gormpostgres.Open(dsn), database.GormConfig())
	s.Require().NoError(err)
	s.Require().NoError(s.db.AutoMigrate(&models.Review{}, &models.ProviderRating{}, &outbox.Record{}))

	s.repo = repository.NewGormReviewRepo(s.db)
}

func (s *ratingSuite) TearDownSuite() {
	if s.db != nil {
		_ = database.Close(s.db)
	}
	if s.container != nil {
		s.NoError(testcontainers.TerminateContainer(s.container))
	}
}

func (s *ratingSuite) TestConcurrentReviews_RatingCountsEveryone() {
	ctx := s.T().Context()
	const (
		providerID = int64(20)
		reviewers  = 12
	)

	var (
		wg    sync.WaitGroup
		stars int
	)
	for i := 0; i < reviewers; i++ {
		n := i%models.MaxStars + 1
		stars += n
		wg.Add(1)
		go func(orderID int64, n int) {
			defer wg.Done()
			_, err := s.repo.Create(ctx, &models.Review{
				OrderID:    orderID,
				CustomerID: 10,
				ProviderID: providerID,
				Stars:      n,
			})
			s.NoError(err)
		}(int64(1000+i), n)
	}
	wg.Wait()

	rating, err := s.repo.FindRating(ctx, providerID)
	s.Require().NoError(err)
	s.Equal(int64(reviewers), rating.TotalReviews)
	s.InDelta(float64(stars)/float64(reviewers), rating.AverageRating, 1e-9)

	var updates int64
	s.Require().NoError(s.db.Model(&outbox.Record{}).
		Where("aggregate_id = ? AND routing_key = ?", providerID, "rating.updated").
		Count(&updates).Error)
	s.Equal(int64(reviewers), updates)
}

func (s *ratingSuite) TestDuplicateOrder_Rejected() {
	ctx := s.T().Context()

	_, err := s.repo.Create(ctx, &models.Review{OrderID: 1, CustomerID: 10, ProviderID: 30, Stars: 4})
	s.Require().NoError(err)

	_, err = s.repo.Create(ctx, &models.Review{OrderID: 1, CustomerID: 10, ProviderID: 30, Stars: 2})
	s.ErrorIs(err, gorm.ErrDuplicatedKey)

	rating, err := s.repo.FindRating(ctx, 30)
	s.Require().NoError(err)
	s.Equal(int64(1), rating.TotalReviews)
	s.Equal(4.0, rating.AverageRating)
}
