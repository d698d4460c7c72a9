package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_RemainingUntilLimit(t *testing.T) {
	tr := NewTracker(3)

	for i := 0; i < 3; i++ {
		assert.True(t, tr.Remaining("sid"), "call %d should be allowed", i+1)
		tr.Increment("sid")
	}

	assert.False(t, tr.Remaining("sid"))
	assert.Equal(t, 3, tr.Count("sid"))
	assert.Equal(t, 3, tr.Limit())
}

func TestTracker_SessionsAreIndependent(t *testing.T) {
	tr := NewTracker(1)

	tr.Increment("a")

	assert.False(t, tr.Remaining("a"))
	assert.True(t, tr.Remaining("b"))
	assert.Equal(t, 0, tr.Count("b"))
}

func TestTracker_ForgetResetsCounter(t *testing.T) {
	tr := NewTracker(1)

	tr.Increment("sid")
	assert.False(t, tr.Remaining("sid"))

	tr.Forget("sid")

	assert.True(t, tr.Remaining("sid"))
	assert.Equal(t, 0, tr.Count("sid"))
}
