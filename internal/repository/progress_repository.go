package repository

import (
	"labelmarket_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByTaskAndTagger(taskID, taggerID uint) (*model.TagProgress, error) {
	var progress model.TagProgress
	err := r.DB.Where("task_id = ? AND tagger_id = ?", taskID, taggerID).First(&progress).Error
	return &progress, err
}
