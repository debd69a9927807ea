package service

import (
	"errors"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"
	"labelmarket_backend/pkg/monitoring"
	"time"

	"gorm.io/gorm"
)

// SubmissionService 答题进度与结果提交。进度游标单调前进，
// 全部题目提交后归零并把分配转入 finished；auto 验收任务随即自动比对。
type SubmissionService struct {
	QuestionRepo *repository.QuestionRepository
	ProgressRepo *repository.ProgressRepository
	Review       *ReviewService
	DB           *gorm.DB
}

func NewSubmissionService(
	questionRepo *repository.QuestionRepository,
	progressRepo *repository.ProgressRepository,
	review *ReviewService,
	db *gorm.DB,
) *SubmissionService {
	return &SubmissionService{
		QuestionRepo: questionRepo,
		ProgressRepo: progressRepo,
		Review:       review,
		DB:           db,
	}
}

// StartQuestion 开始作答：建立未完成的占位结果，重复开始报冲突
func (s *SubmissionService) StartQuestion(taskID, taggerID uint, seq int) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if seq < 1 || seq > task.QuestionCount {
			return util.ErrQuestionNotFound
		}

		if err := requireAcceptedAssignment(tx, taskID, taggerID); err != nil {
			return err
		}

		var existing model.QuestionResult
		err = tx.Where("task_id = ? AND question_seq = ? AND tagger_id = ?", taskID, seq, taggerID).
			First(&existing).Error
		if err == nil {
			return util.ErrAlreadyStarted
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		result := &model.QuestionResult{
			TaskID:      taskID,
			QuestionSeq: seq,
			TaggerID:    taggerID,
			StartedAt:   time.Now(),
		}
		return tx.Create(result).Error
	})
}

// SubmitResult 提交单题结果。同一 (题目, 标注者) 已有完成结果时报冲突，
// 首次提交保存的内容不会被覆盖。
func (s *SubmissionService) SubmitResult(taskID, taggerID uint, seq int, value model.ResultValue) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if seq < 1 || seq > task.QuestionCount {
			return util.ErrQuestionNotFound
		}

		var assignment model.Assignment
		err = forUpdate(tx).
			Where("task_id = ? AND tagger_id = ?", taskID, taggerID).
			First(&assignment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotAssigned
		}
		if err != nil {
			return err
		}
		if assignment.State != model.StateAccepted {
			return util.ErrNotAccepted
		}

		now := time.Now()
		var result model.QuestionResult
		err = tx.Where("task_id = ? AND question_seq = ? AND tagger_id = ?", taskID, seq, taggerID).
			First(&result).Error
		switch {
		case err == nil:
			if result.FinishedAt != nil {
				return util.ErrResubmit
			}
			// 限时任务按真实开始时间计算耗时
			if task.TimePerQuestion > 0 &&
				now.Sub(result.StartedAt) > time.Duration(task.TimePerQuestion)*time.Second {
				return util.ErrTimeLimitExceeded
			}
			value.ApplyTo(&result)
			result.FinishedAt = &now
			if err := tx.Save(&result).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = model.QuestionResult{
				TaskID:      taskID,
				QuestionSeq: seq,
				TaggerID:    taggerID,
				StartedAt:   now,
				FinishedAt:  &now,
			}
			value.ApplyTo(&result)
			if err := tx.Create(&result).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return s.advanceProgress(tx, task, &assignment, seq)
	})
	if err != nil {
		return err
	}

	monitoring.SubmissionCounter.Inc()
	return nil
}

// advanceProgress 推进进度游标。最后一题提交后若全部题目均已完成，
// 游标归零、分配转 finished，auto 验收任务立即自动比对。
func (s *SubmissionService) advanceProgress(tx *gorm.DB, task *model.LabelTask, assignment *model.Assignment, seq int) error {
	var progress model.TagProgress
	err := tx.Where("task_id = ? AND tagger_id = ?", task.ID, assignment.TaggerID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.TagProgress{TaskID: task.ID, TaggerID: assignment.TaggerID, NextSeq: seq}
		if err := tx.Create(&progress).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if seq < task.QuestionCount {
		progress.NextSeq = seq + 1
		return tx.Save(&progress).Error
	}

	var finished int64
	if err := tx.Model(&model.QuestionResult{}).
		Where("task_id = ? AND tagger_id = ? AND finished_at IS NOT NULL", task.ID, assignment.TaggerID).
		Count(&finished).Error; err != nil {
		return err
	}
	if finished < int64(task.QuestionCount) {
		// 还有跳过未答的题，游标停在当前题
		progress.NextSeq = seq
		return tx.Save(&progress).Error
	}

	progress.NextSeq = 0
	if err := tx.Save(&progress).Error; err != nil {
		return err
	}

	assignment.State = model.StateFinished
	if err := tx.Save(assignment).Error; err != nil {
		return err
	}

	if task.AcceptMethod == model.AcceptAuto {
		return s.Review.AutoGradeTx(tx, task, assignment)
	}
	return nil
}

// ProgressView 标注进度视图
type ProgressView struct {
	TaskID        uint  `json:"taskId"`
	NextSeq       int   `json:"nextSeq"` // 0 表示全部完成
	QuestionCount int   `json:"questionCount"`
	FinishedCount int64 `json:"finishedCount"`
}

// QuestionView 单题作答视图：题目加上标注者自己的结果（若已开始）
type QuestionView struct {
	Question model.Question        `json:"question"`
	Result   *model.QuestionResult `json:"result,omitempty"`
}

// GetQuestion 标注者取单题内容，须已接受该任务
func (s *SubmissionService) GetQuestion(taskID, taggerID uint, seq int) (*QuestionView, error) {
	if err := requireAcceptedAssignment(s.DB, taskID, taggerID); err != nil {
		return nil, err
	}

	question, err := s.QuestionRepo.FindByTaskAndSeq(taskID, seq)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}

	view := &QuestionView{Question: *question}
	result, err := s.QuestionRepo.FindResult(taskID, seq, taggerID)
	if err == nil {
		view.Result = result
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return view, nil
}

// GetProgress 查询标注者在任务上的进度
func (s *SubmissionService) GetProgress(taskID, taggerID uint) (*ProgressView, error) {
	var task model.LabelTask
	if err := s.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}

	view := &ProgressView{TaskID: taskID, NextSeq: 1, QuestionCount: task.QuestionCount}

	progress, err := s.ProgressRepo.FindByTaskAndTagger(taskID, taggerID)
	if err == nil {
		view.NextSeq = progress.NextSeq
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	finished, err := s.QuestionRepo.CountFinished(taskID, taggerID)
	if err != nil {
		return nil, err
	}
	view.FinishedCount = finished
	return view, nil
}

// requireAcceptedAssignment 校验标注者已接受该任务
func requireAcceptedAssignment(tx *gorm.DB, taskID, taggerID uint) error {
	var assignment model.Assignment
	err := tx.Where("task_id = ? AND tagger_id = ?", taskID, taggerID).First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotAssigned
	}
	if err != nil {
		return err
	}
	if assignment.State != model.StateAccepted {
		return util.ErrNotAccepted
	}
	return nil
}
