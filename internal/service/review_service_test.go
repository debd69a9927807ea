package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleSize(t *testing.T) {
	cases := []struct {
		total    int
		expected int
	}{
		{5000, 100},
		{1001, 100},
		{1000, 100},
		{500, 50},
		{150, 15},
		{101, 10},
		{100, 10},
		{50, 10},
		{11, 10},
		{10, 10},
		{7, 7},
		{1, 1},
		{0, 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, sampleSize(c.total), "total=%d", c.total)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	picked := sampleWithoutReplacement(50, 10)
	assert.Len(t, picked, 10)

	seen := make(map[int]bool)
	for _, i := range picked {
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 50)
		assert.False(t, seen[i], "index %d picked twice", i)
		seen[i] = true
	}
}

func TestSampleWithoutReplacementFullDraw(t *testing.T) {
	picked := sampleWithoutReplacement(5, 5)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, picked)
}
