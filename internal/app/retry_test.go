package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConfig_BackoffProgression(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       5,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}

	assert.Equal(t, 2*time.Second, cfg.Backoff(1))
	assert.Equal(t, 4*time.Second, cfg.Backoff(2))
	assert.Equal(t, 8*time.Second, cfg.Backoff(3))
	assert.Equal(t, 16*time.Second, cfg.Backoff(4))
}

func TestRetryConfig_BackoffCapped(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       10,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}

	assert.Equal(t, 30*time.Second, cfg.Backoff(5))
	assert.Equal(t, 30*time.Second, cfg.Backoff(9))
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.MaxBackoff)
}
