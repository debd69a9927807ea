package repository

import (
	"labelmarket_backend/internal/model"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

// Create 一次事务内写入任务、题目与标准答案
func (r *TaskRepository) Create(task *model.LabelTask) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		for i := range task.Questions {
			task.Questions[i].TaskID = task.ID
			if err := tx.Create(&task.Questions[i]).Error; err != nil {
				return err
			}
		}
		for i := range task.AnswerKey {
			task.AnswerKey[i].TaskID = task.ID
			if err := tx.Create(&task.AnswerKey[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TaskRepository) FindByID(id uint) (*model.LabelTask, error) {
	var task model.LabelTask
	err := r.DB.First(&task, id).Error
	return &task, err
}

func (r *TaskRepository) FindWithQuestions(id uint) (*model.LabelTask, error) {
	var task model.LabelTask
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).First(&task, id).Error
	return &task, err
}

func (r *TaskRepository) ListByPublisher(publisherID uint, page, limit int) ([]model.LabelTask, int64, error) {
	var tasks []model.LabelTask
	var total int64

	query := r.DB.Model(&model.LabelTask{}).Where("publisher_id = ?", publisherID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

// ListOpenToAll 审核通过的自领取任务列表，供标注者浏览
func (r *TaskRepository) ListOpenToAll(page, limit int) ([]model.LabelTask, int64, error) {
	var tasks []model.LabelTask
	var total int64

	query := r.DB.Model(&model.LabelTask{}).
		Where("strategy = ? AND check_result = ?", model.StrategyToAll, model.CheckAccept)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

// ListPendingCheck 等待平台审核的任务
func (r *TaskRepository) ListPendingCheck(page, limit int) ([]model.LabelTask, int64, error) {
	var tasks []model.LabelTask
	var total int64

	query := r.DB.Model(&model.LabelTask{}).Where("check_result = ?", model.CheckWait)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&tasks).Error
	return tasks, total, err
}

func (r *TaskRepository) UpdateCheckResult(id uint, result model.CheckResult) error {
	return r.DB.Model(&model.LabelTask{}).Where("id = ?", id).
		Update("check_result", result).Error
}
