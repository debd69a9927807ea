package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidState(t *testing.T) {
	for _, state := range ValidStates {
		a := Assignment{State: state}
		assert.True(t, a.IsValidState(), "state=%s", state)
	}
	for _, state := range InvalidStates {
		a := Assignment{State: state}
		assert.False(t, a.IsValidState(), "state=%s", state)
	}
}
