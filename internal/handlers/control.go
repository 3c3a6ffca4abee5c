package handlers

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"wakie/go-backend/internal/config"
	"wakie/go-backend/pkg/log"
)

// ControlAuth checks the operator token required for threshold commands
// against a bcrypt hash. With no hash configured every caller is allowed.
type ControlAuth struct {
	hash []byte
}

func NewControlAuth(hash string) *ControlAuth {
	return &ControlAuth{hash: []byte(strings.TrimSpace(hash))}
}

func (a *ControlAuth) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

func (a *ControlAuth) Verify(token string) bool {
	if !a.Enabled() {
		return true
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

// PreferenceStore persists the EAR threshold an operator picked.
type PreferenceStore interface {
	SaveEarThreshold(ctx context.Context, profile string, value float64) error
}

// ThresholdControl is the single write path for the EAR threshold, shared
// by the gRPC, HTTP and WebSocket surfaces.
type ThresholdControl struct {
	thresholds *config.ThresholdConfig
	auth       *ControlAuth
	store      PreferenceStore
	profile    string

	mu        sync.RWMutex
	listeners []func(float64)
}

func NewThresholdControl(thresholds *config.ThresholdConfig, auth *ControlAuth, store PreferenceStore, profile string) *ThresholdControl {
	return &ThresholdControl{
		thresholds: thresholds,
		auth:       auth,
		store:      store,
		profile:    profile,
	}
}

func (c *ThresholdControl) Authorize(token string) bool {
	return c.auth.Verify(token)
}

func (c *ThresholdControl) Current() config.Thresholds {
	return c.thresholds.Snapshot()
}

// OnChange registers fn to be called with every applied EAR threshold.
func (c *ThresholdControl) OnChange(fn func(float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// SetEarThreshold clamps and applies value, then saves it for the profile.
// A failed save is logged; the new threshold stays in effect.
func (c *ThresholdControl) SetEarThreshold(ctx context.Context, value float64) float64 {
	applied := c.thresholds.SetEarThreshold(value)

	log.Info(log.Fields{
		"requested": value,
		"applied":   applied,
		"profile":   c.profile,
	}, "[handlers.ThresholdControl] EAR threshold updated")

	if c.store != nil {
		if err := c.store.SaveEarThreshold(ctx, c.profile, applied); err != nil {
			log.Warn(log.Fields{"error": err.Error()},
				"[handlers.ThresholdControl] threshold not persisted")
		}
	}

	c.mu.RLock()
	listeners := append([]func(float64){}, c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(applied)
	}
	return applied
}
