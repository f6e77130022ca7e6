package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testSchedule = []time.Duration{
	2 * time.Second,
	3 * time.Second,
	5 * time.Second,
	7 * time.Second,
	10 * time.Second,
}

func TestDelayForFollowsSchedule(t *testing.T) {
	for i, want := range testSchedule {
		assert.Equal(t, want, delayFor(testSchedule, i))
	}
}

func TestDelayForCapsAtFinalValue(t *testing.T) {
	for _, attempt := range []int{5, 10, 59, 1000} {
		assert.Equal(t, 10*time.Second, delayFor(testSchedule, attempt))
	}
}

func TestProgressForIsMonotonicAndBounded(t *testing.T) {
	prev := 0
	for attempt := 0; attempt < 60; attempt++ {
		p := progressFor(attempt, 60, 90)
		assert.GreaterOrEqual(t, p, prev)
		assert.GreaterOrEqual(t, p, progressSubmitted)
		assert.LessOrEqual(t, p, 90)
		prev = p
	}
}

func TestProgressForNeverReachesOneHundred(t *testing.T) {
	assert.Less(t, progressFor(59, 60, 90), 100)
	assert.Less(t, progressFor(10000, 60, 90), 100)
}
