package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/mirror"
	"github.com/ikkim/reviewfunnel-backend/internal/websocket"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	analyticsDays = 30
	insightsDays  = 30
)

var (
	ErrInvalidRating    = errors.New("Invalid rating")
	ErrCommentsRequired = errors.New("Missing required fields")
	ErrRatingRedirects  = errors.New("This rating should be posted as a public review")
)

// MirrorQueue 피드백 외부 미러링 큐 (mirror.Dispatcher)
type MirrorQueue interface {
	Enqueue(job mirror.Job) error
}

// LiveFeed 대시보드 실시간 피드 (websocket.Hub)
type LiveFeed interface {
	Publish(businessID uint, eventType string, data interface{})
}

type SubmitReviewInput struct {
	BusinessID uint
	Slug       string
	Rating     float64
	Name       string
	Comments   string
	// Discount shown to the customer; computed here when nil
	Discount *util.Discount
}

type SubmitResult struct {
	Review   *model.Review
	Business *model.Business
	Discount *util.Discount
}

type RatingDistribution struct {
	Counts      map[int]int     `json:"counts"`
	Percentages map[int]float64 `json:"percentages"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

type Analytics struct {
	TotalReviews       int                `json:"totalReviews"`
	AverageRating      float64            `json:"averageRating"`
	RatingDistribution RatingDistribution `json:"ratingDistribution"`
	TimeSeries         []TimeSeriesPoint  `json:"timeSeries"`
}

type ReviewService interface {
	Submit(ctx context.Context, input SubmitReviewInput) (*SubmitResult, error)
	List(ownerID uint, slug string) (*model.Business, []model.Review, error)
	Analytics(ownerID uint, slug string, now time.Time) (*model.Business, *Analytics, error)
	Insights(ctx context.Context, ownerID uint, slug string, now time.Time) (*model.Business, *Insights, error)
	Export(ownerID uint, slug string) (*model.Business, []byte, error)
}

type reviewService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	insights     InsightsService
	mirror       MirrorQueue // optional
	feed         LiveFeed    // optional
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	insights InsightsService,
	mirror MirrorQueue,
	feed LiveFeed,
) ReviewService {
	return &reviewService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		insights:     insights,
		mirror:       mirror,
		feed:         feed,
	}
}

func (s *reviewService) Submit(ctx context.Context, input SubmitReviewInput) (*SubmitResult, error) {
	business, err := s.findBusiness(input.BusinessID, input.Slug)
	if err != nil {
		return nil, err
	}

	rating, ok := parseRating(input.Rating)
	if !ok {
		return nil, ErrInvalidRating
	}

	comments := strings.TrimSpace(input.Comments)
	if comments == "" {
		return nil, ErrCommentsRequired
	}

	threshold := model.ClampThreshold(business.Config.ReviewThreshold)
	if rating >= threshold {
		return nil, ErrRatingRedirects
	}

	review := &model.Review{
		BusinessID:  business.ID,
		Rating:      rating,
		Comments:    comments,
		SubmittedAt: time.Now().UTC(),
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		review.Name = &name
	}

	if err := s.reviewRepo.Create(review); err != nil {
		logger.Error("Failed to store review", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return nil, err
	}

	discount := input.Discount
	if discount == nil && business.Config.DiscountEnabled {
		d := util.NewDiscount(review.ReviewerName(), positive(business.Config.DiscountPercentage, model.DefaultDiscountPercentage),
			positive(business.Config.DiscountValidDays, model.DefaultDiscountValidDays), review.SubmittedAt)
		discount = &d
	}

	s.forward(business, review, discount)

	logger.Info("Review submitted", map[string]interface{}{
		"review_id":   review.ID,
		"business_id": business.ID,
		"rating":      rating,
	})

	return &SubmitResult{Review: review, Business: business, Discount: discount}, nil
}

// forward 미러링과 실시간 피드, 어느 쪽도 요청을 막지 않음
func (s *reviewService) forward(business *model.Business, review *model.Review, discount *util.Discount) {
	if s.feed != nil {
		s.feed.Publish(business.ID, websocket.EventReviewCreated, review)
	}

	sinkURL := strings.TrimSpace(business.Config.SheetScriptURL)
	if s.mirror == nil || sinkURL == "" {
		return
	}

	payload := mirror.Payload{
		BusinessSlug:  business.Slug,
		BusinessName:  business.Name,
		Category:      business.Category,
		PlaceID:       business.PlaceID,
		GoogleMapsURL: business.GoogleMapsURL,
		Rating:        review.Rating,
		Name:          review.ReviewerName(),
		Comments:      review.Comments,
		SubmittedAt:   review.SubmittedAt,
	}
	if discount != nil {
		payload.DiscountCode = discount.Code
		payload.DiscountPercentage = discount.Percentage
		payload.DiscountValidDays = discount.ValidDays
		payload.DiscountExpiresOn = discount.ExpiresOn.Format("2006-01-02")
	}

	if err := s.mirror.Enqueue(mirror.Job{URL: sinkURL, ReviewID: review.ID, Payload: payload}); err != nil {
		logger.Warn("Review mirror not queued", map[string]interface{}{
			"review_id": review.ID,
			"error":     err.Error(),
		})
	}
}

func (s *reviewService) findBusiness(id uint, slug string) (*model.Business, error) {
	var (
		business *model.Business
		err      error
	)
	switch {
	case id > 0:
		business, err = s.businessRepo.FindByID(id)
	case strings.TrimSpace(slug) != "":
		business, err = s.businessRepo.FindBySlug(strings.ToLower(strings.TrimSpace(slug)))
	default:
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return business, nil
}

// parseRating 1..5 정수만 허용
func parseRating(r float64) (int, bool) {
	if math.IsNaN(r) || math.IsInf(r, 0) || r != math.Trunc(r) {
		return 0, false
	}
	if r < model.MinRating || r > model.MaxRating {
		return 0, false
	}
	return int(r), true
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// List 임계값 미만 비공개 피드백, 최신순
func (s *reviewService) List(ownerID uint, slug string) (*model.Business, []model.Review, error) {
	business, err := findOwnedBusiness(s.businessRepo, ownerID, slug)
	if err != nil {
		return nil, nil, err
	}

	reviews, err := s.reviewRepo.FindByBusiness(business.ID, model.ClampThreshold(business.Config.ReviewThreshold))
	if err != nil {
		return nil, nil, err
	}
	return business, reviews, nil
}

func (s *reviewService) Analytics(ownerID uint, slug string, now time.Time) (*model.Business, *Analytics, error) {
	business, reviews, err := s.List(ownerID, slug)
	if err != nil {
		return nil, nil, err
	}
	return business, ComputeAnalytics(reviews, now), nil
}

// ComputeAnalytics 평균, 분포, 최근 30일 일별 건수 (UTC)
func ComputeAnalytics(reviews []model.Review, now time.Time) *Analytics {
	a := &Analytics{
		TotalReviews: len(reviews),
		RatingDistribution: RatingDistribution{
			Counts:      map[int]int{},
			Percentages: map[int]float64{},
		},
		TimeSeries: make([]TimeSeriesPoint, 0, analyticsDays),
	}
	for r := model.MinRating; r <= model.MaxRating; r++ {
		a.RatingDistribution.Counts[r] = 0
		a.RatingDistribution.Percentages[r] = 0
	}

	today := now.UTC().Truncate(24 * time.Hour)
	index := make(map[string]int, analyticsDays)
	for i := analyticsDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		index[date] = len(a.TimeSeries)
		a.TimeSeries = append(a.TimeSeries, TimeSeriesPoint{Date: date})
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		a.RatingDistribution.Counts[r.Rating]++
		if i, ok := index[r.SubmittedAt.UTC().Format("2006-01-02")]; ok {
			a.TimeSeries[i].Count++
		}
	}

	if a.TotalReviews > 0 {
		a.AverageRating = math.Round(float64(sum)/float64(a.TotalReviews)*10) / 10
		for rating, count := range a.RatingDistribution.Counts {
			a.RatingDistribution.Percentages[rating] = float64(count) / float64(a.TotalReviews) * 100
		}
	}
	return a
}

func (s *reviewService) Insights(ctx context.Context, ownerID uint, slug string, now time.Time) (*model.Business, *Insights, error) {
	business, err := findOwnedBusiness(s.businessRepo, ownerID, slug)
	if err != nil {
		return nil, nil, err
	}

	since := now.AddDate(0, 0, -insightsDays)
	reviews, err := s.reviewRepo.FindByBusinessSince(business.ID, model.ClampThreshold(business.Config.ReviewThreshold), since)
	if err != nil {
		return nil, nil, err
	}

	insights, err := s.insights.Generate(ctx, business, reviews)
	if err != nil {
		if !errors.Is(err, ErrInsightsNotConfigured) {
			logger.Error("Failed to generate insights", err, map[string]interface{}{
				"business_id": business.ID,
			})
		}
		return nil, nil, err
	}
	return business, insights, nil
}

func (s *reviewService) Export(ownerID uint, slug string) (*model.Business, []byte, error) {
	business, reviews, err := s.List(ownerID, slug)
	if err != nil {
		return nil, nil, err
	}

	data, err := ExportReviewsXLSX(business, reviews)
	if err != nil {
		logger.Error("Failed to build review export", err, map[string]interface{}{
			"business_id": business.ID,
		})
		return nil, nil, err
	}
	return business, data, nil
}
