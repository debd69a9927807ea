package service

import (
	"testing"
	"time"

	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptOrderAssignment(t *testing.T) {
	db := newTestDB(t)
	distribute, assignment, _, _ := newServices(db)

	taggers := seedTaggerPool(t, db, 2)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "顺序分发",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 2, RewardPerQuestion: 1, QuestionCount: 1,
	})
	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))

	require.NoError(t, assignment.Accept(task.ID, taggers[0].ID))
	assert.Equal(t, model.StateAccepted, assignmentState(t, db, task.ID, taggers[0].ID))

	var row model.Assignment
	require.NoError(t, db.Where("task_id = ? AND tagger_id = ?", task.ID, taggers[0].ID).
		First(&row).Error)
	assert.Positive(t, row.AcceptedAt)

	assert.ErrorIs(t, assignment.Accept(task.ID, taggers[0].ID), util.ErrRepeatAccept)

	// 未被分发到的人不能接受 order 任务
	outsider := seedUser(t, db, model.Tagger, 0, 100)
	assert.ErrorIs(t, assignment.Accept(task.ID, outsider.ID), util.ErrNotAssigned)
}

// 滚动24小时限额对同一标注者跨任务生效
func TestAcceptLimitAcrossTasks(t *testing.T) {
	db := newTestDB(t)
	_, assignment, _, _ := newServices(db)

	// 信用分10，每日限额1
	tagger := seedUser(t, db, model.Tagger, 0, 10)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)

	var tasks []*model.LabelTask
	for i := 0; i < 2; i++ {
		task := seedTask(t, db, &model.LabelTask{
			PublisherID: publisher.ID, Title: "限额任务",
			Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
			DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
		})
		require.NoError(t, db.Create(&model.Assignment{
			TaskID: task.ID, TaggerID: tagger.ID, State: model.StateNotHandled,
		}).Error)
		tasks = append(tasks, task)
	}

	require.NoError(t, assignment.Accept(tasks[0].ID, tagger.ID))
	assert.ErrorIs(t, assignment.Accept(tasks[1].ID, tagger.ID), util.ErrAcceptLimitExceeded)

	// 第二个任务的分配仍处 not_handled，限额窗口滑走后可再接受
	assert.Equal(t, model.StateNotHandled, assignmentState(t, db, tasks[1].ID, tagger.ID))
	require.NoError(t, db.Model(&model.Assignment{}).
		Where("task_id = ? AND tagger_id = ?", tasks[0].ID, tagger.ID).
		Update("accepted_at", time.Now().Add(-25*time.Hour).Unix()).Error)
	require.NoError(t, assignment.Accept(tasks[1].ID, tagger.ID))
}

func TestAcceptToAllSelfService(t *testing.T) {
	db := newTestDB(t)
	_, assignment, _, _ := newServices(db)

	taggers := seedTaggerPool(t, db, 3)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "自由领取",
		Strategy: model.StrategyToAll, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 2, RewardPerQuestion: 1, QuestionCount: 1,
	})

	// 无预建分配记录，领取时现场建立
	require.NoError(t, assignment.Accept(task.ID, taggers[0].ID))
	assert.Equal(t, model.StateAccepted, assignmentState(t, db, task.ID, taggers[0].ID))
	assert.ErrorIs(t, assignment.Accept(task.ID, taggers[0].ID), util.ErrRepeatAccept)

	require.NoError(t, assignment.Accept(task.ID, taggers[1].ID))

	// 名额已满
	assert.ErrorIs(t, assignment.Accept(task.ID, taggers[2].ID), util.ErrDistributionDone)

	// 有人拒绝让出名额后第三人可领取
	require.NoError(t, assignment.Refuse(task.ID, taggers[1].ID))
	require.NoError(t, assignment.Accept(task.ID, taggers[2].ID))
}

func TestAcceptBannedTagger(t *testing.T) {
	db := newTestDB(t)
	_, assignment, _, _ := newServices(db)

	tagger := seedUser(t, db, model.Tagger, 0, 100)
	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", tagger.ID).Update("is_banned", true).Error)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "封禁校验",
		Strategy: model.StrategyToAll, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})

	assert.ErrorIs(t, assignment.Accept(task.ID, tagger.ID), util.ErrForbidden)
}

func TestRefuseAssignment(t *testing.T) {
	db := newTestDB(t)
	distribute, assignment, _, _ := newServices(db)

	taggers := seedTaggerPool(t, db, 1)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "拒绝任务",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})
	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))

	require.NoError(t, assignment.Refuse(task.ID, taggers[0].ID))

	var row model.Assignment
	require.NoError(t, db.Where("task_id = ? AND tagger_id = ?", task.ID, taggers[0].ID).
		First(&row).Error)
	assert.Equal(t, model.StateRefused, row.State)
	assert.Equal(t, model.AcceptedAtRefused, row.AcceptedAt)

	assert.ErrorIs(t, assignment.Refuse(task.ID, taggers[0].ID), util.ErrNotRefusable)
	assert.ErrorIs(t, assignment.Accept(task.ID, taggers[0].ID), util.ErrRepeatAccept)
}

func TestQuotaWindow(t *testing.T) {
	db := newTestDB(t)
	_, assignment, _, _ := newServices(db)

	// 信用分35，限额3
	tagger := seedUser(t, db, model.Tagger, 0, 35)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)

	fresh := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "窗口内",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})
	stale := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "窗口外",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 1, RewardPerQuestion: 1, QuestionCount: 1,
	})
	require.NoError(t, db.Create(&model.Assignment{
		TaskID: fresh.ID, TaggerID: tagger.ID,
		AcceptedAt: time.Now().Unix(), State: model.StateAccepted,
	}).Error)
	require.NoError(t, db.Create(&model.Assignment{
		TaskID: stale.ID, TaggerID: tagger.ID,
		AcceptedAt: time.Now().Add(-25 * time.Hour).Unix(), State: model.StateAccepted,
	}).Error)

	quota, err := assignment.Quota(tagger.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), quota.Limit)
	assert.Equal(t, int64(1), quota.Used)
	assert.Equal(t, int64(2), quota.Remaining)

	_, err = assignment.Quota(9999)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
