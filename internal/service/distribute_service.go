package service

import (
	"errors"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"
	"labelmarket_backend/pkg/logger"
	"labelmarket_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DistributeService 任务分发：从全局轮转游标出发挑选标注者并建立分配记录。
// 游标是全系统共享的（不是每任务一个），在分发事务内加行锁推进，
// 与产生的分配记录一起提交或回滚。
type DistributeService struct {
	TaskRepo   *repository.TaskRepository
	AssignRepo *repository.AssignmentRepository
	Ledger     *UserService
	DB         *gorm.DB
}

func NewDistributeService(
	taskRepo *repository.TaskRepository,
	assignRepo *repository.AssignmentRepository,
	ledger *UserService,
	db *gorm.DB,
) *DistributeService {
	return &DistributeService{
		TaskRepo:   taskRepo,
		AssignRepo: assignRepo,
		Ledger:     ledger,
		DB:         db,
	}
}

// selectTaggers 纯轮转选择：在ID升序的标注者序列上，从游标的下一个ID开始
// 环形前进，跳过封禁者和排除集，最多选出 n 个互不相同的标注者。
// 返回选中的ID序列和推进后的游标（最后一个被选中者的ID）。
func selectTaggers(taggers []model.User, cursor uint, n int, exclude map[uint]bool) ([]uint, uint) {
	if n <= 0 || len(taggers) == 0 {
		return nil, cursor
	}

	// 游标达到或超过最大ID时回绕到最小ID
	start := 0
	if cursor < taggers[len(taggers)-1].ID {
		for i, t := range taggers {
			if t.ID > cursor {
				start = i
				break
			}
		}
	}

	picks := make([]uint, 0, n)
	for i := 0; i < len(taggers) && len(picks) < n; i++ {
		t := taggers[(start+i)%len(taggers)]
		if t.IsBanned || exclude[t.ID] {
			continue
		}
		picks = append(picks, t.ID)
		cursor = t.ID
	}
	return picks, cursor
}

// Distribute 发布方对 order 策略任务发起分发
func (s *DistributeService) Distribute(taskID, publisherID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.PublisherID != publisherID {
			return util.ErrForbidden
		}
		if err := checkDistributable(task); err != nil {
			return err
		}
		// toall 任务由标注者领取时逐步建立分配，不允许显式分发
		if task.Strategy == model.StrategyToAll {
			return util.ErrAlreadyDistributed
		}

		var existing int64
		if err := tx.Model(&model.Assignment{}).
			Where("task_id = ?", task.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return util.ErrAlreadyDistributed
		}

		if err := s.Ledger.Debit(tx, publisherID, task.RequiredScore()); err != nil {
			return err
		}

		taggers, banned, err := loadPool(tx)
		if err != nil {
			return err
		}
		if int64(task.DistributeUserNum) > int64(len(taggers))-banned {
			return util.ErrTaggerPoolExhausted
		}

		cursor, err := lockCursor(tx)
		if err != nil {
			return err
		}

		picks, newCursor := selectTaggers(taggers, cursor.Value, task.DistributeUserNum, nil)
		if len(picks) < task.DistributeUserNum {
			return util.ErrTaggerPoolExhausted
		}

		for _, taggerID := range picks {
			assignment := &model.Assignment{
				TaskID:   task.ID,
				TaggerID: taggerID,
				State:    model.StateNotHandled,
			}
			if err := tx.Create(assignment).Error; err != nil {
				return err
			}
		}

		cursor.Value = newCursor
		return tx.Save(cursor).Error
	})
	if err != nil {
		return err
	}

	monitoring.DistributionCounter.WithLabelValues("distribute").Inc()
	logger.Log.Info("task distributed",
		zap.Uint("taskId", taskID), zap.Uint("publisherId", publisherID))
	return nil
}

// Redistribute 补充分发：把失效（拒绝/验收不通过/被封禁）的名额补齐到
// distributeUserNum，已在任务上出现过的标注者一律跳过
func (s *DistributeService) Redistribute(taskID, publisherID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.PublisherID != publisherID {
			return util.ErrForbidden
		}
		if err := checkDistributable(task); err != nil {
			return err
		}
		if task.Strategy == model.StrategyToAll {
			return util.ErrInvalidStrategy
		}

		var assignments []model.Assignment
		if err := tx.Where("task_id = ?", task.ID).Find(&assignments).Error; err != nil {
			return err
		}

		taggers, _, err := loadPool(tx)
		if err != nil {
			return err
		}
		bannedSet := make(map[uint]bool)
		for _, t := range taggers {
			if t.IsBanned {
				bannedSet[t.ID] = true
			}
		}

		// 已出现过的标注者永不重复分配；被封禁但仍处有效状态的名额视同失效
		exclude := make(map[uint]bool, len(assignments))
		valid := 0
		for _, a := range assignments {
			exclude[a.TaggerID] = true
			if a.IsValidState() && !bannedSet[a.TaggerID] {
				valid++
			}
		}

		need := task.DistributeUserNum - valid
		if need <= 0 {
			return nil
		}

		if err := s.Ledger.Debit(tx, publisherID, task.RewardPerQuestion*task.QuestionCount*need); err != nil {
			return err
		}

		cursor, err := lockCursor(tx)
		if err != nil {
			return err
		}

		picks, newCursor := selectTaggers(taggers, cursor.Value, need, exclude)
		if len(picks) < need {
			return util.ErrTaggerPoolExhausted
		}

		for _, taggerID := range picks {
			assignment := &model.Assignment{
				TaskID:   task.ID,
				TaggerID: taggerID,
				State:    model.StateNotHandled,
			}
			if err := tx.Create(assignment).Error; err != nil {
				return err
			}
		}

		cursor.Value = newCursor
		return tx.Save(cursor).Error
	})
	if err != nil {
		return err
	}

	monitoring.DistributionCounter.WithLabelValues("redistribute").Inc()
	logger.Log.Info("task redistributed",
		zap.Uint("taskId", taskID), zap.Uint("publisherId", publisherID))
	return nil
}

// IsDistributed 任务是否已有分配记录
func (s *DistributeService) IsDistributed(taskID uint) (bool, error) {
	if _, err := s.TaskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, util.ErrTaskNotFound
		}
		return false, err
	}
	return s.AssignRepo.HasAny(taskID)
}

// forUpdate 排他行锁。sqlite 方言没有 FOR UPDATE 语法，写入靠其库级锁串行
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockTask 对任务行加排他锁，串行化同一任务上的全部变更操作
func lockTask(tx *gorm.DB, taskID uint) (*model.LabelTask, error) {
	var task model.LabelTask
	err := forUpdate(tx).First(&task, taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func checkDistributable(task *model.LabelTask) error {
	switch task.CheckResult {
	case model.CheckWait:
		return util.ErrTaskNotChecked
	case model.CheckRefuse:
		return util.ErrTaskRefused
	}
	return nil
}

func loadPool(tx *gorm.DB) ([]model.User, int64, error) {
	var taggers []model.User
	if err := tx.Where("role = ?", model.Tagger).Order("id ASC").Find(&taggers).Error; err != nil {
		return nil, 0, err
	}
	var banned int64
	for _, t := range taggers {
		if t.IsBanned {
			banned++
		}
	}
	return taggers, banned, nil
}

func lockCursor(tx *gorm.DB) (*model.RotationCursor, error) {
	var cursor model.RotationCursor
	err := forUpdate(tx).First(&cursor).Error
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}
