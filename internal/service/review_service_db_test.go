package service

import (
	"testing"

	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAutoTask(t *testing.T, db *gorm.DB, publisherID uint, questionCount int) *model.LabelTask {
	t.Helper()
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisherID, Title: "自动验收",
		Strategy: model.StrategyToAll, AcceptMethod: model.AcceptAuto,
		DistributeUserNum: 1, RewardPerQuestion: 3, QuestionCount: questionCount,
	})
	seedQuestions(t, db, task.ID, questionCount, true)
	return task
}

// 全部答案与标准答案相符：验收通过并一次性发放报酬
func TestAutoGradeAcceptsAndPaysOnce(t *testing.T) {
	db := newTestDB(t)
	_, assignment, submission, review := newServices(db)

	tagger := seedUser(t, db, model.Tagger, 0, 100)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedAutoTask(t, db, publisher.ID, 2)
	require.NoError(t, assignment.Accept(task.ID, tagger.ID))

	require.NoError(t, submission.SubmitResult(task.ID, tagger.ID, 1,
		model.ResultValue{Type: model.ValueText, Text: "answer-1"}))
	require.NoError(t, submission.SubmitResult(task.ID, tagger.ID, 2,
		model.ResultValue{Type: model.ValueText, Text: "answer-2"}))

	assert.Equal(t, model.StateCheckAccepted, assignmentState(t, db, task.ID, tagger.ID))

	var paid model.User
	require.NoError(t, db.First(&paid, tagger.ID).Error)
	assert.Equal(t, 6, paid.Score)
	assert.Equal(t, 6, paid.TagScore)
	assert.Equal(t, 6, paid.VipGrowth)

	// 状态离开 finished 后再次触发也不重付
	var row model.Assignment
	require.NoError(t, db.Where("task_id = ? AND tagger_id = ?", task.ID, tagger.ID).
		First(&row).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return review.AutoGradeTx(tx, task, &row)
	}))
	assert.Equal(t, 6, userScore(t, db, tagger.ID))

	// 重复提交也不再触发验收
	err := submission.SubmitResult(task.ID, tagger.ID, 2,
		model.ResultValue{Type: model.ValueText, Text: "answer-2"})
	assert.ErrorIs(t, err, util.ErrNotAccepted)
	assert.Equal(t, 6, userScore(t, db, tagger.ID))
}

// 任一答案不符：验收驳回，不发报酬
func TestAutoGradeMismatchRefuses(t *testing.T) {
	db := newTestDB(t)
	_, assignment, submission, _ := newServices(db)

	tagger := seedUser(t, db, model.Tagger, 0, 100)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedAutoTask(t, db, publisher.ID, 2)
	require.NoError(t, assignment.Accept(task.ID, tagger.ID))

	require.NoError(t, submission.SubmitResult(task.ID, tagger.ID, 1,
		model.ResultValue{Type: model.ValueText, Text: "answer-1"}))
	require.NoError(t, submission.SubmitResult(task.ID, tagger.ID, 2,
		model.ResultValue{Type: model.ValueText, Text: "答错了"}))

	assert.Equal(t, model.StateCheckRefused, assignmentState(t, db, task.ID, tagger.ID))
	assert.Equal(t, 0, userScore(t, db, tagger.ID))
}

func TestManualCheckAllWithResults(t *testing.T) {
	db := newTestDB(t)
	distribute, assignment, submission, review := newServices(db)

	taggers := seedTaggerPool(t, db, 1)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "人工审核",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 3,
	})
	seedQuestions(t, db, task.ID, 3, false)

	// 未分发不能审核
	_, err := review.ManualCheck(task.ID, publisher.ID, taggers[0].ID, ManualCheckAll)
	assert.ErrorIs(t, err, util.ErrNotDistributed)

	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))
	require.NoError(t, assignment.Accept(task.ID, taggers[0].ID))
	require.NoError(t, submission.SubmitResult(task.ID, taggers[0].ID, 2,
		model.ResultValue{Type: model.ValueText, Text: "只答了第二题"}))

	sampled, err := review.ManualCheck(task.ID, publisher.ID, taggers[0].ID, ManualCheckAll)
	require.NoError(t, err)
	require.Len(t, sampled, 3)
	assert.Nil(t, sampled[0].Result)
	require.NotNil(t, sampled[1].Result)
	assert.Equal(t, "只答了第二题", sampled[1].Result.ValueText)
	assert.Nil(t, sampled[2].Result)

	// 非发布方无权审核
	_, err = review.ManualCheck(task.ID, taggers[0].ID, taggers[0].ID, ManualCheckAll)
	assert.ErrorIs(t, err, util.ErrForbidden)
}

func TestSetCheckPassMarksOnly(t *testing.T) {
	db := newTestDB(t)
	distribute, assignment, _, review := newServices(db)

	taggers := seedTaggerPool(t, db, 1)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "人工结论",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})
	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))
	require.NoError(t, assignment.Accept(task.ID, taggers[0].ID))

	require.NoError(t, review.SetCheckPass(task.ID, publisher.ID, taggers[0].ID, false))

	var row model.Assignment
	require.NoError(t, db.Where("task_id = ? AND tagger_id = ?", task.ID, taggers[0].ID).
		First(&row).Error)
	assert.Equal(t, model.CheckPassFail, row.CheckPass)
	// 标记不驱动状态机
	assert.Equal(t, model.StateAccepted, row.State)
	assert.Equal(t, 0, userScore(t, db, taggers[0].ID))
}

func TestAnswerKeyOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	_, _, _, review := newServices(db)

	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	other := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedAutoTask(t, db, publisher.ID, 2)

	key, err := review.AnswerKey(task.ID, publisher.ID)
	require.NoError(t, err)
	require.Len(t, key, 2)
	assert.Equal(t, "answer-1", key[0].Value)

	_, err = review.AnswerKey(task.ID, other.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)
}
