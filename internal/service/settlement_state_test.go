package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionTransitions(t *testing.T) {
	allowed := [][2]string{
		{"PENDING", "SUCCESS"},
		{"PENDING", "FAILED"},
		{"SCHEDULED", "PENDING"},
		{"SCHEDULED", "SUCCESS"},
		{"SCHEDULED", "FAILED"},
	}
	for _, tr := range allowed {
		assert.True(t, canTransition(tr[0], tr[1]), "%s -> %s should be allowed", tr[0], tr[1])
	}

	denied := [][2]string{
		{"SUCCESS", "FAILED"},
		{"SUCCESS", "PENDING"},
		{"FAILED", "SUCCESS"},
		{"FAILED", "PENDING"},
		{"PENDING", "SCHEDULED"},
		{"UNKNOWN", "SUCCESS"},
	}
	for _, tr := range denied {
		assert.False(t, canTransition(tr[0], tr[1]), "%s -> %s should be denied", tr[0], tr[1])
	}
}

func TestTransitionsAreCaseInsensitive(t *testing.T) {
	assert.True(t, canTransition("pending", "success"))
	assert.True(t, canTransition(" Scheduled ", "failed"))
	assert.False(t, canTransition("success", "failed"))
}
