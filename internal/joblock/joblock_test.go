package joblock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "timesheet:job:reconcile", Key("reconcile"))
}

func TestNewLockerRejectsBadURL(t *testing.T) {
	_, err := NewLocker(context.Background(), "not a url", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}

func TestNewLockerUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewLocker(ctx, "redis://127.0.0.1:1/0?dial_timeout=200ms&max_retries=-1", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
