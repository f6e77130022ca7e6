package queue

import "time"

// Progress milestones within a single processing run. Progress is
// monotonically non-decreasing and only reaches 100 on completion.
const (
	progressSubmitting = 10
	progressSubmitted  = 30
)

// delayFor returns the poll delay for a zero-based attempt index. Attempts
// beyond the schedule's length are capped at its final value.
func delayFor(schedule []time.Duration, attempt int) time.Duration {
	if len(schedule) == 0 {
		return 0
	}
	if attempt >= len(schedule) {
		return schedule[len(schedule)-1]
	}
	return schedule[attempt]
}

// progressFor maps a completed attempt count onto a bounded display
// progress: linear from the post-submission milestone up to the ceiling.
// The bar never reaches 100 before the terminal event.
func progressFor(attempt, maxAttempts, ceiling int) int {
	if ceiling <= progressSubmitted {
		return progressSubmitted
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	p := progressSubmitted + (attempt+1)*(ceiling-progressSubmitted)/maxAttempts
	if p > ceiling {
		return ceiling
	}
	return p
}
