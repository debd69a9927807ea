package service

import (
	"crypto/rand"
	"errors"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"
	"labelmarket_backend/pkg/logger"
	"labelmarket_backend/pkg/monitoring"
	"math/big"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ManualCheckSelect = "select" // 抽样审核
	ManualCheckAll    = "all"    // 全量审核
)

// ReviewService 验收引擎：人工抽样审核与自动比对验收。
// 自动验收通过时一次性发放报酬，由 finished -> check_accepted 的单向转移保证不重付。
type ReviewService struct {
	TaskRepo     *repository.TaskRepository
	AssignRepo   *repository.AssignmentRepository
	QuestionRepo *repository.QuestionRepository
	Ledger       *UserService
	DB           *gorm.DB
}

func NewReviewService(
	taskRepo *repository.TaskRepository,
	assignRepo *repository.AssignmentRepository,
	questionRepo *repository.QuestionRepository,
	ledger *UserService,
	db *gorm.DB,
) *ReviewService {
	return &ReviewService{
		TaskRepo:     taskRepo,
		AssignRepo:   assignRepo,
		QuestionRepo: questionRepo,
		Ledger:       ledger,
		DB:           db,
	}
}

// SampledQuestion 审核视图：题目加上目标标注者的作答（如指定）
type SampledQuestion struct {
	Question model.Question        `json:"question"`
	Result   *model.QuestionResult `json:"result,omitempty"`
}

// sampleSize 抽样数量：>1000 取100，>100 取十分之一，否则最多10个
func sampleSize(total int) int {
	switch {
	case total > 1000:
		return 100
	case total > 100:
		return total / 10
	case total > 10:
		return 10
	default:
		return total
	}
}

// sampleWithoutReplacement 无放回抽样，crypto/rand 驱动的部分洗牌
func sampleWithoutReplacement(n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j, _ := rand.Int(rand.Reader, big.NewInt(int64(n-i)))
		pos := i + int(j.Int64())
		idx[i], idx[pos] = idx[pos], idx[i]
	}
	return idx[:k]
}

// ManualCheck 发布方人工审核：返回抽样（或全量）题目及指定标注者的作答，
// 输出始终按题目编号升序
func (s *ReviewService) ManualCheck(taskID, publisherID, taggerID uint, method string) ([]SampledQuestion, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.PublisherID != publisherID {
		return nil, util.ErrForbidden
	}

	distributed, err := s.AssignRepo.HasAny(taskID)
	if err != nil {
		return nil, err
	}
	if !distributed {
		return nil, util.ErrNotDistributed
	}

	questions, err := s.QuestionRepo.ListByTask(taskID)
	if err != nil {
		return nil, err
	}

	if method == ManualCheckSelect {
		k := sampleSize(len(questions))
		picked := sampleWithoutReplacement(len(questions), k)
		sampled := make([]model.Question, 0, k)
		for _, i := range picked {
			sampled = append(sampled, questions[i])
		}
		sort.Slice(sampled, func(i, j int) bool { return sampled[i].Seq < sampled[j].Seq })
		questions = sampled
	}

	resultBySeq := make(map[int]*model.QuestionResult)
	if taggerID != 0 {
		results, err := s.QuestionRepo.ListResults(taskID, taggerID)
		if err != nil {
			return nil, err
		}
		for i := range results {
			resultBySeq[results[i].QuestionSeq] = &results[i]
		}
	}

	out := make([]SampledQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, SampledQuestion{Question: q, Result: resultBySeq[q.Seq]})
	}
	return out, nil
}

// AnswerKey 发布方查看自己任务的标准答案
func (s *ReviewService) AnswerKey(taskID, publisherID uint) ([]model.AnswerKeyEntry, error) {
	task, err := s.TaskRepo.FindByID(taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.PublisherID != publisherID {
		return nil, util.ErrForbidden
	}
	return s.QuestionRepo.ListAnswerKey(taskID)
}

// SetCheckPass 人工验收结论：只记标记，不驱动状态机，也不触发付款
func (s *ReviewService) SetCheckPass(taskID, publisherID, taggerID uint, pass bool) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task.PublisherID != publisherID {
			return util.ErrForbidden
		}

		var assignment model.Assignment
		err = tx.Where("task_id = ? AND tagger_id = ?", taskID, taggerID).First(&assignment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotDistributed
		}
		if err != nil {
			return err
		}

		mark := model.CheckPassOK
		if !pass {
			mark = model.CheckPassFail
		}
		return tx.Model(&assignment).Update("check_pass", mark).Error
	})
}

// AutoGradeTx 自动验收：在提交事务内，对刚转入 finished 的分配逐题比对标准答案。
// 任一不符则 check_refused；全部相符则 check_accepted 并发放报酬。
func (s *ReviewService) AutoGradeTx(tx *gorm.DB, task *model.LabelTask, assignment *model.Assignment) error {
	if assignment.State != model.StateFinished {
		return nil
	}

	var key []model.AnswerKeyEntry
	if err := tx.Where("task_id = ?", task.ID).Order("question_seq ASC").Find(&key).Error; err != nil {
		return err
	}

	var results []model.QuestionResult
	if err := tx.Where("task_id = ? AND tagger_id = ?", task.ID, assignment.TaggerID).
		Find(&results).Error; err != nil {
		return err
	}
	bySeq := make(map[int]*model.QuestionResult, len(results))
	for i := range results {
		bySeq[results[i].QuestionSeq] = &results[i]
	}

	passed := true
	for _, entry := range key {
		result, ok := bySeq[entry.QuestionSeq]
		if !ok || result.FinishedAt == nil || result.CanonicalValue() != entry.Value {
			passed = false
			break
		}
	}

	if !passed {
		assignment.State = model.StateCheckRefused
		if err := tx.Save(assignment).Error; err != nil {
			return err
		}
		monitoring.AutoCheckCounter.WithLabelValues("refused").Inc()
		return nil
	}

	assignment.State = model.StateCheckAccepted
	if err := tx.Save(assignment).Error; err != nil {
		return err
	}
	if err := s.Ledger.PayReward(tx, assignment.TaggerID, task.RewardTotal()); err != nil {
		return err
	}

	monitoring.AutoCheckCounter.WithLabelValues("accepted").Inc()
	logger.Log.Info("auto check accepted",
		zap.Uint("taskId", task.ID),
		zap.Uint("taggerId", assignment.TaggerID),
		zap.Int("reward", task.RewardTotal()))
	return nil
}
