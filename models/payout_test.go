package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionPayout(t *testing.T) {
	tests := []struct {
		from PayoutStatus
		to   PayoutStatus
		want bool
	}{
		{PayoutPending, PayoutProcessing, true},
		{PayoutPending, PayoutCompleted, true},
		{PayoutPending, PayoutCancelled, true},
		{PayoutProcessing, PayoutCompleted, true},
		{PayoutProcessing, PayoutCancelled, false},
		{PayoutProcessing, PayoutPending, false},
		{PayoutCompleted, PayoutProcessing, false},
		{PayoutCompleted, PayoutCancelled, false},
		{PayoutCancelled, PayoutPending, false},
		{PayoutCancelled, PayoutCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransitionPayout(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
