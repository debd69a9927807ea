package repository

import (
	"labelmarket_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) ListByTask(taskID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("task_id = ?", taskID).Order("seq ASC").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) FindByTaskAndSeq(taskID uint, seq int) (*model.Question, error) {
	var question model.Question
	err := r.DB.Where("task_id = ? AND seq = ?", taskID, seq).First(&question).Error
	return &question, err
}

func (r *QuestionRepository) ListAnswerKey(taskID uint) ([]model.AnswerKeyEntry, error) {
	var entries []model.AnswerKeyEntry
	err := r.DB.Where("task_id = ?", taskID).Order("question_seq ASC").Find(&entries).Error
	return entries, err
}

func (r *QuestionRepository) FindResult(taskID uint, seq int, taggerID uint) (*model.QuestionResult, error) {
	var result model.QuestionResult
	err := r.DB.Where("task_id = ? AND question_seq = ? AND tagger_id = ?", taskID, seq, taggerID).
		First(&result).Error
	return &result, err
}

func (r *QuestionRepository) ListResults(taskID, taggerID uint) ([]model.QuestionResult, error) {
	var results []model.QuestionResult
	err := r.DB.Where("task_id = ? AND tagger_id = ?", taskID, taggerID).
		Order("question_seq ASC").Find(&results).Error
	return results, err
}

// CountFinished 已提交（finished_at 非空）的结果数
func (r *QuestionRepository) CountFinished(taskID, taggerID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuestionResult{}).
		Where("task_id = ? AND tagger_id = ? AND finished_at IS NOT NULL", taskID, taggerID).
		Count(&count).Error
	return count, err
}
