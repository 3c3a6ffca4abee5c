package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"wakie/go-backend/internal/config"
)

func TestControlAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	assert.NoError(t, err)

	auth := NewControlAuth(string(hash))
	assert.True(t, auth.Enabled())
	assert.True(t, auth.Verify(testToken))
	assert.True(t, auth.Verify("Bearer "+testToken))
	assert.False(t, auth.Verify("wrong"))
	assert.False(t, auth.Verify(""))

	open := NewControlAuth("")
	assert.False(t, open.Enabled())
	assert.True(t, open.Verify(""))
	assert.True(t, open.Verify("anything"))
}

func TestThresholdControlClampsPersistsAndNotifies(t *testing.T) {
	thresholds := config.NewThresholdConfig(config.DefaultThresholds())
	store := &memoryStore{}
	control := NewThresholdControl(thresholds, NewControlAuth(""), store, "driver-1")

	var notified []float64
	control.OnChange(func(v float64) { notified = append(notified, v) })

	assert.InDelta(t, 0.15, control.SetEarThreshold(context.Background(), 0.15), 1e-12)
	assert.Equal(t, config.MaxEarThreshold, control.SetEarThreshold(context.Background(), 0.9))
	assert.Equal(t, config.MinEarThreshold, control.SetEarThreshold(context.Background(), -1))

	saved, ok := store.get("driver-1")
	assert.True(t, ok)
	assert.Equal(t, config.MinEarThreshold, saved)
	assert.Equal(t, []float64{0.15, config.MaxEarThreshold, config.MinEarThreshold}, notified)
	assert.Equal(t, config.MinEarThreshold, control.Current().EarThreshold)
}

func TestThresholdControlWithoutStore(t *testing.T) {
	thresholds := config.NewThresholdConfig(config.DefaultThresholds())
	control := NewThresholdControl(thresholds, nil, nil, "default")

	assert.True(t, control.Authorize(""))
	assert.InDelta(t, 0.1, control.SetEarThreshold(context.Background(), 0.1), 1e-12)
}
