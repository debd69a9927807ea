package service

import (
	"testing"

	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAssignmentsForPublisher(t *testing.T) {
	db := newTestDB(t)
	distribute, assignment, _, _ := newServices(db)
	tasks := NewTaskService(repository.NewTaskRepository(db), repository.NewAssignmentRepository(db))

	taggers := seedTaggerPool(t, db, 3)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)
	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "分配一览",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 3, RewardPerQuestion: 1, QuestionCount: 1,
	})
	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))
	require.NoError(t, assignment.Refuse(task.ID, taggers[0].ID))

	assignments, valid, err := tasks.ListAssignments(task.ID, publisher.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 3)
	// 拒绝的不占名额
	assert.Equal(t, int64(2), valid)

	other := seedUser(t, db, model.Publisher, 0, 100)
	_, _, err = tasks.ListAssignments(task.ID, other.ID)
	assert.ErrorIs(t, err, util.ErrForbidden)

	_, _, err = tasks.ListAssignments(9999, publisher.ID)
	assert.ErrorIs(t, err, util.ErrTaskNotFound)
}

func TestPoolCursorValue(t *testing.T) {
	db := newTestDB(t)
	distribute, _, _, _ := newServices(db)
	pool := NewPoolService(repository.NewUserRepository(db), repository.NewCursorRepository(db), nil)

	taggers := seedTaggerPool(t, db, 2)
	publisher := seedUser(t, db, model.Publisher, 1000, 100)

	value, err := pool.CursorValue()
	require.NoError(t, err)
	assert.Equal(t, uint(0), value)

	task := seedTask(t, db, &model.LabelTask{
		PublisherID: publisher.ID, Title: "游标推进",
		Strategy: model.StrategyOrder, AcceptMethod: model.AcceptManual,
		DistributeUserNum: 2, RewardPerQuestion: 1, QuestionCount: 1,
	})
	require.NoError(t, distribute.Distribute(task.ID, publisher.ID))

	value, err = pool.CursorValue()
	require.NoError(t, err)
	assert.Equal(t, taggers[1].ID, value)

	listed, err := pool.EligibleTaggers()
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
