package service

import (
	"errors"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"
	"labelmarket_backend/pkg/monitoring"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentService 分配状态机：接受/拒绝及其前置校验。
// 每个操作在单事务内完成，任务行锁保证同一任务上的并发操作串行执行。
type AssignmentService struct {
	AssignRepo *repository.AssignmentRepository
	UserRepo   *repository.UserRepository
	DB         *gorm.DB
}

func NewAssignmentService(assignRepo *repository.AssignmentRepository, userRepo *repository.UserRepository, db *gorm.DB) *AssignmentService {
	return &AssignmentService{AssignRepo: assignRepo, UserRepo: userRepo, DB: db}
}

// Accept 标注者接受任务。
// order 策略要求已有分配记录；toall 策略在名额未满时现场建立记录。
func (s *AssignmentService) Accept(taskID, taggerID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}

		// 标注者行锁：同一人跨任务的并发接受也要串行，否则两个事务
		// 都在写入前数到"未超限"，限额被突破
		var tagger model.User
		if err := forUpdate(tx).First(&tagger, taggerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}
		if tagger.IsBanned {
			return util.ErrForbidden
		}
		since := time.Now().Add(-24 * time.Hour)
		var accepted int64
		if err := tx.Model(&model.Assignment{}).
			Where("tagger_id = ? AND accepted_at >= ?", taggerID, since.Unix()).
			Count(&accepted).Error; err != nil {
			return err
		}
		if accepted >= int64(tagger.DailyAcceptLimit()) {
			return util.ErrAcceptLimitExceeded
		}

		var assignment model.Assignment
		findErr := forUpdate(tx).
			Where("task_id = ? AND tagger_id = ?", taskID, taggerID).
			First(&assignment).Error

		now := time.Now().Unix()

		if task.Strategy == model.StrategyToAll {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				if err := checkDistributable(task); err != nil {
					return err
				}
				var valid int64
				if err := tx.Model(&model.Assignment{}).
					Where("task_id = ? AND state IN ?", taskID, model.ValidStates).
					Count(&valid).Error; err != nil {
					return err
				}
				if valid >= int64(task.DistributeUserNum) {
					return util.ErrDistributionDone
				}
				assignment = model.Assignment{
					TaskID:     taskID,
					TaggerID:   taggerID,
					AcceptedAt: now,
					State:      model.StateAccepted,
				}
				if err := tx.Create(&assignment).Error; err != nil {
					return err
				}
				return s.bumpCategoryStat(tx, taggerID, task.Category)
			}
			if findErr != nil {
				return findErr
			}
			if assignment.State != model.StateNotHandled {
				return util.ErrRepeatAccept
			}
		} else {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return util.ErrNotAssigned
			}
			if findErr != nil {
				return findErr
			}
			if assignment.State != model.StateNotHandled {
				return util.ErrRepeatAccept
			}
		}

		assignment.AcceptedAt = now
		assignment.State = model.StateAccepted
		if err := tx.Save(&assignment).Error; err != nil {
			return err
		}
		return s.bumpCategoryStat(tx, taggerID, task.Category)
	})
	if err != nil {
		return err
	}

	monitoring.AssignmentCounter.WithLabelValues("accept").Inc()
	return nil
}

// Refuse 标注者拒绝任务：acceptedAt 置 -1，此人在该任务上永不再被分发
func (s *AssignmentService) Refuse(taskID, taggerID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}

		var assignment model.Assignment
		findErr := forUpdate(tx).
			Where("task_id = ? AND tagger_id = ?", taskID, taggerID).
			First(&assignment).Error

		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			if task.Strategy != model.StrategyToAll {
				return util.ErrNotAssigned
			}
			assignment = model.Assignment{
				TaskID:     taskID,
				TaggerID:   taggerID,
				AcceptedAt: model.AcceptedAtRefused,
				State:      model.StateRefused,
			}
			return tx.Create(&assignment).Error
		}
		if findErr != nil {
			return findErr
		}

		if assignment.State != model.StateNotHandled && assignment.State != model.StateAccepted {
			return util.ErrNotRefusable
		}

		assignment.AcceptedAt = model.AcceptedAtRefused
		assignment.State = model.StateRefused
		return tx.Save(&assignment).Error
	})
	if err != nil {
		return err
	}

	monitoring.AssignmentCounter.WithLabelValues("refuse").Inc()
	return nil
}

// IsAccepted 标注者在该任务上是否已接受
func (s *AssignmentService) IsAccepted(taskID, taggerID uint) (bool, error) {
	assignment, err := s.AssignRepo.FindByTaskAndTagger(taskID, taggerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch assignment.State {
	case model.StateAccepted, model.StateFinished, model.StateCheckAccepted, model.StateCheckRefused:
		return true, nil
	}
	return false, nil
}

func (s *AssignmentService) ListMine(taggerID uint, page, limit int) ([]model.Assignment, int64, error) {
	return s.AssignRepo.ListByTagger(taggerID, page, limit)
}

// QuotaView 标注者当日领取额度
type QuotaView struct {
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// Quota 滚动24小时窗口内的领取额度使用情况
func (s *AssignmentService) Quota(taggerID uint) (*QuotaView, error) {
	tagger, err := s.UserRepo.FindByID(taggerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	used, err := s.AssignRepo.CountAcceptedSince(taggerID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	view := &QuotaView{Limit: int64(tagger.DailyAcceptLimit()), Used: used}
	if view.Used < view.Limit {
		view.Remaining = view.Limit - view.Used
	}
	return view, nil
}

// bumpCategoryStat 记录标注者在该任务分类下的接单次数，供后续分发加权
func (s *AssignmentService) bumpCategoryStat(tx *gorm.DB, taggerID uint, category string) error {
	if category == "" {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tagger_id"}, {Name: "category"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"accept_count": gorm.Expr("accept_count + 1")}),
	}).Create(&model.TaggerCategoryStat{
		TaggerID:    taggerID,
		Category:    category,
		AcceptCount: 1,
	}).Error
}
