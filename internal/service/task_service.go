package service

import (
	"encoding/json"
	"errors"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"

	"gorm.io/gorm"
)

// TaskService 任务的发布、平台审核与各角色查询视图
type TaskService struct {
	TaskRepo   *repository.TaskRepository
	AssignRepo *repository.AssignmentRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, assignRepo *repository.AssignmentRepository) *TaskService {
	return &TaskService{TaskRepo: taskRepo, AssignRepo: assignRepo}
}

type QuestionReq struct {
	DataType model.QuestionDataType `json:"dataType" binding:"required,oneof=text image video"`
	DataRef  string                 `json:"dataRef" binding:"required"`
	Options  json.RawMessage        `json:"options"`
	Answer   string                 `json:"answer"` // auto 验收任务的标准答案
}

type CreateTaskReq struct {
	Title             string             `json:"title" binding:"required"`
	Description       string             `json:"description"`
	Category          string             `json:"category"`
	Strategy          model.TaskStrategy `json:"strategy" binding:"required,oneof=order toall"`
	AcceptMethod      model.AcceptMethod `json:"acceptMethod" binding:"required,oneof=manual auto"`
	DistributeUserNum int                `json:"distributeUserNum" binding:"required,min=1"`
	RewardPerQuestion int                `json:"rewardPerQuestion" binding:"required,min=1"`
	TimePerQuestion   int                `json:"timePerQuestion" binding:"omitempty,min=0"`
	Questions         []QuestionReq      `json:"questions" binding:"required,min=1"`
}

// CreateTask 发布任务：题目按提交顺序编号，auto 验收必须每题带标准答案。
// 新任务一律进入 wait 状态等待平台审核。
func (s *TaskService) CreateTask(publisherID uint, req CreateTaskReq) (*model.LabelTask, error) {
	task := &model.LabelTask{
		PublisherID:       publisherID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Strategy:          req.Strategy,
		AcceptMethod:      req.AcceptMethod,
		CheckResult:       model.CheckWait,
		DistributeUserNum: req.DistributeUserNum,
		RewardPerQuestion: req.RewardPerQuestion,
		QuestionCount:     len(req.Questions),
		TimePerQuestion:   req.TimePerQuestion,
	}

	for i, q := range req.Questions {
		seq := i + 1
		task.Questions = append(task.Questions, model.Question{
			Seq:      seq,
			DataType: q.DataType,
			DataRef:  q.DataRef,
			Options:  q.Options,
		})
		if req.AcceptMethod == model.AcceptAuto {
			if q.Answer == "" {
				return nil, util.ErrAnswerKeyNeeded
			}
			task.AnswerKey = append(task.AnswerKey, model.AnswerKeyEntry{
				QuestionSeq: seq,
				Value:       q.Answer,
			})
		}
	}

	if err := s.TaskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

// CheckTask 平台审核任务，通过后才可分发/领取
func (s *TaskService) CheckTask(taskID uint, pass bool) error {
	if _, err := s.findTask(taskID); err != nil {
		return err
	}
	result := model.CheckAccept
	if !pass {
		result = model.CheckRefuse
	}
	return s.TaskRepo.UpdateCheckResult(taskID, result)
}

// GetDetail 任务详情。发布方与管理员可见全部；标注者只有被分配、
// 或任务为可自领取时可见，且永不返回标准答案。
func (s *TaskService) GetDetail(taskID uint, viewer *util.Claims) (*model.LabelTask, error) {
	task, err := s.TaskRepo.FindWithQuestions(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}

	if viewer.Role == model.Admin || (viewer.Role == model.Publisher && task.PublisherID == viewer.UserID) {
		return task, nil
	}

	if viewer.Role == model.Tagger {
		if task.Strategy == model.StrategyToAll && task.CheckResult == model.CheckAccept {
			return task, nil
		}
		_, err := s.AssignRepo.FindByTaskAndTagger(taskID, viewer.UserID)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, util.ErrForbidden
}

// ListAssignments 发布方查看任务的全部分配记录及占名额数
func (s *TaskService) ListAssignments(taskID, publisherID uint) ([]model.Assignment, int64, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, 0, err
	}
	if task.PublisherID != publisherID {
		return nil, 0, util.ErrForbidden
	}

	assignments, err := s.AssignRepo.ListByTask(taskID)
	if err != nil {
		return nil, 0, err
	}
	valid, err := s.AssignRepo.CountValid(taskID)
	if err != nil {
		return nil, 0, err
	}
	return assignments, valid, nil
}

func (s *TaskService) ListByPublisher(publisherID uint, page, limit int) ([]model.LabelTask, int64, error) {
	return s.TaskRepo.ListByPublisher(publisherID, page, limit)
}

func (s *TaskService) ListOpenToAll(page, limit int) ([]model.LabelTask, int64, error) {
	return s.TaskRepo.ListOpenToAll(page, limit)
}

func (s *TaskService) ListPendingCheck(page, limit int) ([]model.LabelTask, int64, error) {
	return s.TaskRepo.ListPendingCheck(page, limit)
}

func (s *TaskService) findTask(taskID uint) (*model.LabelTask, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	return task, err
}
