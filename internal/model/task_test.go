package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskScoreArithmetic(t *testing.T) {
	task := &LabelTask{
		RewardPerQuestion: 5,
		QuestionCount:     20,
		DistributeUserNum: 3,
	}

	assert.Equal(t, 100, task.RewardTotal())
	assert.Equal(t, 300, task.RequiredScore())
}
