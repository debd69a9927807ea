package service

import (
	"testing"

	"labelmarket_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func makeTaggers(ids ...uint) []model.User {
	taggers := make([]model.User, 0, len(ids))
	for _, id := range ids {
		taggers = append(taggers, model.User{BaseModel: model.BaseModel{ID: id}, Role: model.Tagger})
	}
	return taggers
}

func TestSelectTaggersRotation(t *testing.T) {
	taggers := makeTaggers(2, 3, 4, 6)

	picks, cursor := selectTaggers(taggers, 1, 3, nil)
	assert.Equal(t, []uint{2, 3, 4}, picks)
	assert.Equal(t, uint(4), cursor)

	// 从上次游标继续，环形回绕
	picks, cursor = selectTaggers(taggers, 4, 3, nil)
	assert.Equal(t, []uint{6, 2, 3}, picks)
	assert.Equal(t, uint(3), cursor)
}

func TestSelectTaggersWrapsWhenCursorAtMax(t *testing.T) {
	taggers := makeTaggers(2, 3, 4, 6)

	picks, cursor := selectTaggers(taggers, 6, 2, nil)
	assert.Equal(t, []uint{2, 3}, picks)
	assert.Equal(t, uint(3), cursor)

	// 游标超过最大ID同样回绕
	picks, cursor = selectTaggers(taggers, 99, 1, nil)
	assert.Equal(t, []uint{2}, picks)
	assert.Equal(t, uint(2), cursor)
}

func TestSelectTaggersSkipsBanned(t *testing.T) {
	taggers := makeTaggers(2, 3, 4, 6)
	taggers[1].IsBanned = true // id=3

	picks, cursor := selectTaggers(taggers, 1, 3, nil)
	assert.Equal(t, []uint{2, 4, 6}, picks)
	assert.Equal(t, uint(6), cursor)
}

func TestSelectTaggersSkipsExcluded(t *testing.T) {
	taggers := makeTaggers(2, 3, 4, 6)
	exclude := map[uint]bool{2: true, 4: true}

	picks, cursor := selectTaggers(taggers, 1, 2, exclude)
	assert.Equal(t, []uint{3, 6}, picks)
	assert.Equal(t, uint(6), cursor)
}

func TestSelectTaggersNeverPicksTwice(t *testing.T) {
	taggers := makeTaggers(2, 3, 4)

	// 需求超过池容量时每人至多选中一次
	picks, cursor := selectTaggers(taggers, 3, 10, nil)
	assert.Equal(t, []uint{4, 2, 3}, picks)
	assert.Equal(t, uint(3), cursor)
}

func TestSelectTaggersEmptyInputs(t *testing.T) {
	picks, cursor := selectTaggers(nil, 5, 3, nil)
	assert.Nil(t, picks)
	assert.Equal(t, uint(5), cursor)

	picks, cursor = selectTaggers(makeTaggers(1, 2), 0, 0, nil)
	assert.Nil(t, picks)
	assert.Equal(t, uint(0), cursor)
}
