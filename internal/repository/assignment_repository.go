package repository

import (
	"labelmarket_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) FindByTaskAndTagger(taskID, taggerID uint) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.DB.Where("task_id = ? AND tagger_id = ?", taskID, taggerID).First(&assignment).Error
	return &assignment, err
}

func (r *AssignmentRepository) ListByTask(taskID uint) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.DB.Where("task_id = ?", taskID).Order("id ASC").Find(&assignments).Error
	return assignments, err
}

func (r *AssignmentRepository) ListByTagger(taggerID uint, page, limit int) ([]model.Assignment, int64, error) {
	var assignments []model.Assignment
	var total int64

	query := r.DB.Model(&model.Assignment{}).Where("tagger_id = ?", taggerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&assignments).Error
	return assignments, total, err
}

func (r *AssignmentRepository) HasAny(taskID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Assignment{}).Where("task_id = ?", taskID).Count(&count).Error
	return count > 0, err
}

// CountValid 计入名额的分配数
func (r *AssignmentRepository) CountValid(taskID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Assignment{}).
		Where("task_id = ? AND state IN ?", taskID, model.ValidStates).
		Count(&count).Error
	return count, err
}

// CountAcceptedSince 标注者在给定时间之后接受的任务数，用于每日限额
func (r *AssignmentRepository) CountAcceptedSince(taggerID uint, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Assignment{}).
		Where("tagger_id = ? AND accepted_at >= ?", taggerID, since.Unix()).
		Count(&count).Error
	return count, err
}
