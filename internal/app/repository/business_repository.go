package repository

import (
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"gorm.io/gorm"
)

type BusinessRepository interface {
	Create(business *model.Business) error
	FindByID(id uint) (*model.Business, error)
	FindBySlug(slug string) (*model.Business, error)
	FindByUserID(userID uint) ([]model.Business, error)
	FindAll() ([]model.Business, error)
	CountByUserID(userID uint) (int64, error)
	SlugExists(slug string) (bool, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(business *model.Business) error {
	logger.Debug("Creating business in database", map[string]interface{}{
		"slug":    business.Slug,
		"user_id": business.UserID,
	})

	if err := r.db.Create(business).Error; err != nil {
		logger.Error("Failed to create business in database", err, map[string]interface{}{
			"slug":    business.Slug,
			"user_id": business.UserID,
		})
		return err
	}

	logger.Debug("Business created in database", map[string]interface{}{
		"business_id": business.ID,
		"slug":        business.Slug,
	})
	return nil
}

func (r *businessRepository) FindByID(id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.First(&business, id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) FindBySlug(slug string) (*model.Business, error) {
	var business model.Business
	if err := r.db.Where("slug = ?", slug).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// FindByUserID newest first
func (r *businessRepository) FindByUserID(userID uint) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&businesses).Error
	if err != nil {
		logger.Error("Failed to list businesses for user", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return businesses, nil
}

func (r *businessRepository) FindAll() ([]model.Business, error) {
	var businesses []model.Business
	if err := r.db.Order("slug ASC").Find(&businesses).Error; err != nil {
		logger.Error("Failed to list businesses", err)
		return nil, err
	}
	return businesses, nil
}

func (r *businessRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Business{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *businessRepository) SlugExists(slug string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Business{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
