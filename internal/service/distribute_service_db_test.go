package service

import (
	"testing"

	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeCreatesAssignmentsAndDebits(t *testing.T) {
	db := newTestDB(t)
	distribute, _, _, _ := newServices(db)

	taggers := seedTaggerPool(t, db, 3)
	publisher := seedUser(t, db, model.Publisher, 100, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID:       publisher.ID,
		Title:             "图片分类",
		Strategy:          model.StrategyOrder,
		AcceptMethod:      model.AcceptManual,
		DistributeUserNum: 2,
		RewardPerQuestion: 5,
		QuestionCount:     4,
	})

	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))

	var assignments []model.Assignment
	require.NoError(t, db.Where("task_id = ?", task.ID).Order("tagger_id ASC").
		Find(&assignments).Error)
	require.Len(t, assignments, 2)
	assert.Equal(t, taggers[0].ID, assignments[0].TaggerID)
	assert.Equal(t, taggers[1].ID, assignments[1].TaggerID)
	for _, a := range assignments {
		assert.Equal(t, model.StateNotHandled, a.State)
	}

	// 冻结积分 = 5 * 4 * 2
	assert.Equal(t, 60, userScore(t, db, publisher.ID))

	var cursor model.RotationCursor
	require.NoError(t, db.First(&cursor).Error)
	assert.Equal(t, taggers[1].ID, cursor.Value)

	// 重复分发报冲突，不再扣分
	assert.ErrorIs(t, distribute.Distribute(task.ID, publisher.ID), util.ErrAlreadyDistributed)
	assert.Equal(t, 60, userScore(t, db, publisher.ID))
}

func TestDistributeGuards(t *testing.T) {
	db := newTestDB(t)
	distribute, _, _, _ := newServices(db)

	seedTaggerPool(t, db, 2)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)

	poor := seedUser(t, db, model.Publisher, 3, 100)
	cheap := seedTask(t, db, &model.LabelTask{
		PublisherID: poor.ID, Title: "积分不足",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 2, QuestionCount: 2,
	})
	assert.ErrorIs(t, distribute.Distribute(cheap.ID, poor.ID), util.ErrInsufficientScore)

	big := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "人手不够",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 5, RewardPerQuestion: 1, QuestionCount: 1,
	})
	assert.ErrorIs(t, distribute.Distribute(big.ID, publisher.ID), util.ErrTaggerPoolExhausted)

	unchecked := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "未审核",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		CheckResult:       model.CheckWait,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})
	assert.ErrorIs(t, distribute.Distribute(unchecked.ID, publisher.ID), util.ErrTaskNotChecked)

	toall := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "自由领取",
		Strategy: model.StrategyToAll, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})
	assert.ErrorIs(t, distribute.Distribute(toall.ID, publisher.ID), util.ErrAlreadyDistributed)
	assert.ErrorIs(t, distribute.Redistribute(toall.ID, publisher.ID), util.ErrInvalidStrategy)
}

// 已分配者被封禁后补发：池中剩余的空闲标注者足够补齐名额时必须成功，
// 不能把"已分配且被封禁"的人在可用人数里重复扣除
func TestRedistributeFillsSeatsWithBannedAssignees(t *testing.T) {
	db := newTestDB(t)
	distribute, _, _, _ := newServices(db)

	taggers := seedTaggerPool(t, db, 5)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID:       publisher.ID,
		Title:             "文本标注",
		Strategy:          model.StrategyOrder,
		AcceptMethod:      model.AcceptManual,
		DistributeUserNum: 3,
		RewardPerQuestion: 2,
		QuestionCount:     5,
	})

	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))
	scoreAfterDistribute := userScore(t, db, publisher.ID)

	// 前两位被分配者被封禁，名额失效但他们仍占据排除集
	for _, banned := range taggers[:2] {
		require.NoError(t, db.Model(&model.User{}).
			Where("id = ?", banned.ID).Update("is_banned", true).Error)
	}

	require.NoError(t, distribute.Redistribute(task.ID, publisher.ID))

	var assignments []model.Assignment
	require.NoError(t, db.Where("task_id = ?", task.ID).Find(&assignments).Error)
	assert.Len(t, assignments, 5)

	byTagger := make(map[uint]bool, len(assignments))
	for _, a := range assignments {
		byTagger[a.TaggerID] = true
	}
	assert.True(t, byTagger[taggers[3].ID])
	assert.True(t, byTagger[taggers[4].ID])

	// 补发两个名额再冻结 2 * 5 * 2
	assert.Equal(t, scoreAfterDistribute-20, userScore(t, db, publisher.ID))
}

func TestRedistributeNoopWhenSeatsFull(t *testing.T) {
	db := newTestDB(t)
	distribute, _, _, _ := newServices(db)

	seedTaggerPool(t, db, 3)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "名额已满",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 2, RewardPerQuestion: 1, QuestionCount: 1,
	})

	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))
	score := userScore(t, db, publisher.ID)

	require.NoError(t, distribute.Redistribute(task.ID, publisher.ID))

	var count int64
	require.NoError(t, db.Model(&model.Assignment{}).
		Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, score, userScore(t, db, publisher.ID))
}

func TestRedistributePoolGenuinelyExhausted(t *testing.T) {
	db := newTestDB(t)
	distribute, assignment, _, _ := newServices(db)

	taggers := seedTaggerPool(t, db, 2)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "无人可补",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 2, RewardPerQuestion: 1, QuestionCount: 1,
	})

	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))
	// 拒绝过的人永不再分配，池中已无人可补
	require.NoError(t, assignment.Refuse(task.ID, taggers[0].ID))
	assert.ErrorIs(t, distribute.Redistribute(task.ID, publisher.ID), util.ErrTaggerPoolExhausted)
}
