package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wakie/go-backend/internal/config"
	"wakie/go-backend/internal/models"
	"wakie/go-backend/internal/services"
)

const testToken = "open-sesame"

type countingAlarm struct {
	mu     sync.Mutex
	starts int
	stops  int
}

func (a *countingAlarm) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts++
}

func (a *countingAlarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
}

func (a *countingAlarm) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.starts, a.stops
}

type memoryStore struct {
	mu    sync.Mutex
	saved map[string]float64
}

func (s *memoryStore) SaveEarThreshold(_ context.Context, profile string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string]float64)
	}
	s.saved[profile] = value
	return nil
}

func (s *memoryStore) get(profile string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.saved[profile]
	return v, ok
}

type eventRecorder struct {
	mu     sync.Mutex
	events []models.StateEvent
}

func (r *eventRecorder) OnStateEvent(ev models.StateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) last() (models.StateEvent, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return models.StateEvent{}, 0
	}
	return r.events[len(r.events)-1], len(r.events)
}

type testEnv struct {
	thresholds *config.ThresholdConfig
	control    *ThresholdControl
	metrics    *services.Metrics
	monitor    *services.Monitor
	alarm      *countingAlarm
	store      *memoryStore
	recorder   *eventRecorder
	hub        *Hub
	handlers   *Handlers
}

func newTestEnv(t *testing.T, withAuth bool) *testEnv {
	t.Helper()

	var hash string
	if withAuth {
		b, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(b)
	}

	env := &testEnv{
		thresholds: config.NewThresholdConfig(config.DefaultThresholds()),
		alarm:      &countingAlarm{},
		store:      &memoryStore{},
		recorder:   &eventRecorder{},
	}
	env.metrics = services.NewMetrics(env.thresholds)
	env.control = NewThresholdControl(env.thresholds, NewControlAuth(hash), env.store, "driver-1")
	env.monitor = services.NewMonitor(env.thresholds, env.alarm, env.metrics, env.recorder)
	env.hub = NewHub(env.control, env.metrics, "*")
	env.handlers = NewHandlers(env.monitor, env.control, env.metrics, env.hub, "*", "test")
	t.Cleanup(env.hub.CloseAll)
	return env
}
