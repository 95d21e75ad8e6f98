package events

const (
	ReviewCreatedType Type = "review.created"
	RatingUpdatedType Type = "rating.updated"
)

type ReviewCreated struct {
	ReviewID   int64  `json:"review_id"`
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	ProviderID int64  `json:"provider_id"`
	Stars      int    `json:"stars"`
	Content    string `json:"content"`
}

func (ReviewCreated) EventType() Type      { return ReviewCreatedType }
func (ReviewCreated) Exchange() string     { return ExchangeReviews }
func (e ReviewCreated) AggregateID() int64 { return e.ReviewID }

type RatingUpdated struct {
	ProviderID    int64   `json:"provider_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
}

func (RatingUpdated) EventType() Type      { return RatingUpdatedType }
func (RatingUpdated) Exchange() string     { return ExchangeReviews }
func (e RatingUpdated) AggregateID() int64 { return e.ProviderID }
