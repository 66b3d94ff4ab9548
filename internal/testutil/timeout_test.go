package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextWithTestDeadline_WithFallback(t *testing.T) {
	fallback := 100 * time.Millisecond
	ctx, cancel := ContextWithTestDeadline(t, fallback)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok, "context should have deadline")
	assert.LessOrEqual(t, time.Until(deadline), fallback)
	assert.Greater(t, time.Until(deadline), time.Duration(0))
}

func TestContextWithTestDeadlineBuffer_WithFallback(t *testing.T) {
	ctx, cancel := ContextWithTestDeadlineBuffer(t, 200*time.Millisecond, 50*time.Millisecond)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok, "context should have deadline")
	assert.Greater(t, time.Until(deadline), time.Duration(0))
}

func TestContextWithTimeout(t *testing.T) {
	timeout := 150 * time.Millisecond
	ctx, cancel := ContextWithTimeout(t, timeout)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok, "context should have deadline")
	assert.InDelta(t, timeout.Seconds(), time.Until(deadline).Seconds(), 0.1)
}

func TestRunContext(t *testing.T) {
	ctx, cancel := RunContext(t)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok, "context should have deadline")
	assert.LessOrEqual(t, time.Until(deadline), DefaultRunTimeout)
}
