package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
)

// fakeKV is an in-memory KeyValueStorage for tests
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return value, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return errors.New("storage quota exceeded")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pairs := make([]interfaces.KeyValuePair, 0, len(f.data))
	for k, v := range f.data {
		pairs = append(pairs, interfaces.KeyValuePair{Key: k, Value: v})
	}
	return pairs, nil
}

// fakeClock makes the polling loop run without real waits
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  []time.Duration
	onSleep func(attempt int)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	n := len(c.sleeps)
	hook := c.onSleep
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// fakeGenClient scripts the remote generation service
type fakeGenClient struct {
	mu        sync.Mutex
	submits   int
	polls     int
	submitFn  func(req models.GenerationRequest) (string, error)
	statusFn  func(jobID string, poll int) (*models.GenerationStatus, error)
	submitted []models.GenerationRequest
}

func (f *fakeGenClient) Submit(ctx context.Context, req models.GenerationRequest) (string, error) {
	f.mu.Lock()
	f.submits++
	f.submitted = append(f.submitted, req)
	fn := f.submitFn
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return "job_test_1", nil
}

func (f *fakeGenClient) Status(ctx context.Context, jobID string) (*models.GenerationStatus, error) {
	f.mu.Lock()
	f.polls++
	n := f.polls
	fn := f.statusFn
	f.mu.Unlock()

	if fn != nil {
		return fn(jobID, n)
	}
	return &models.GenerationStatus{Status: models.JobStatusProcessing}, nil
}

func (f *fakeGenClient) EstimateCost(ctx context.Context, content string) (*models.CostEstimate, error) {
	return &models.CostEstimate{}, nil
}

func (f *fakeGenClient) Voices(ctx context.Context) ([]models.VoicePreset, error) {
	return nil, nil
}

func (f *fakeGenClient) Health(ctx context.Context) error {
	return nil
}

func (f *fakeGenClient) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

// captureEvents records published events synchronously
type captureEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (c *captureEvents) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (c *captureEvents) Publish(ctx context.Context, event interfaces.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEvents) ofType(eventType interfaces.EventType) []interfaces.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []interfaces.Event
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// staticVoices is a trivial VoiceCatalog for tests
type staticVoices struct{}

func (staticVoices) List(ctx context.Context) ([]models.VoicePreset, error) {
	return nil, nil
}

func (staticVoices) DisplayName(hostVoice, guestVoice string) string {
	return hostVoice + " + " + guestVoice
}

func (staticVoices) Validate(hostVoice, guestVoice string) error {
	return nil
}
