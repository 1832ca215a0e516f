package repository

import (
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"gorm.io/gorm"
)

// ReviewRepository reviews are append-only, there is no update or delete
type ReviewRepository interface {
	Create(review *model.Review) error
	// FindByBusiness returns reviews rated below belowRating, newest first
	FindByBusiness(businessID uint, belowRating int) ([]model.Review, error)
	// FindByBusinessSince is FindByBusiness restricted to submitted_at >= since
	FindByBusinessSince(businessID uint, belowRating int, since time.Time) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	if review.SubmittedAt.IsZero() {
		review.SubmittedAt = time.Now().UTC()
	}

	if err := r.db.Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"business_id": review.BusinessID,
			"rating":      review.Rating,
		})
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id":   review.ID,
		"business_id": review.BusinessID,
	})
	return nil
}

func (r *reviewRepository) FindByBusiness(businessID uint, belowRating int) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("business_id = ? AND rating < ?", businessID, belowRating).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to list reviews", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) FindByBusinessSince(businessID uint, belowRating int, since time.Time) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Where("business_id = ? AND rating < ? AND submitted_at >= ?", businessID, belowRating, since).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to list recent reviews", err, map[string]interface{}{
			"business_id": businessID,
			"since":       since,
		})
		return nil, err
	}
	return reviews, nil
}
