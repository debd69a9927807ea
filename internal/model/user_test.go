package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyAcceptLimit(t *testing.T) {
	cases := []struct {
		creditScore int
		expected    int
	}{
		{100, 10},
		{105, 10},
		{30, 3},
		{10, 1},
		{9, 1},
		{0, 1},
		{-20, 1},
	}

	for _, c := range cases {
		u := &User{CreditScore: c.creditScore}
		assert.Equal(t, c.expected, u.DailyAcceptLimit(), "creditScore=%d", c.creditScore)
	}
}
