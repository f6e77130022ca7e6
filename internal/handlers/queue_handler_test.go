package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
	"github.com/cadenzahq/cadenza/internal/models"
	"github.com/cadenzahq/cadenza/internal/services/transfer"
)

// mockOrchestrator implements interfaces.Orchestrator for handler tests
type mockOrchestrator struct {
	enqueueFunc  func(ctx context.Context, topics []models.Topic, hostVoice, guestVoice string) models.EnqueueResult
	snapshotFunc func(ctx context.Context) models.QueueSnapshot
	cancelCalled bool
}

func (m *mockOrchestrator) Enqueue(ctx context.Context, topics []models.Topic, hostVoice, guestVoice string) models.EnqueueResult {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, topics, hostVoice, guestVoice)
	}
	return models.EnqueueResult{}
}

func (m *mockOrchestrator) ProcessQueue(ctx context.Context) (*models.ProcessResult, error) {
	return &models.ProcessResult{}, nil
}

func (m *mockOrchestrator) GenerateNow(ctx context.Context, id string) error {
	return nil
}

func (m *mockOrchestrator) CancelGeneration() {
	m.cancelCalled = true
}

func (m *mockOrchestrator) Snapshot(ctx context.Context) models.QueueSnapshot {
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx)
	}
	return models.NewQueueSnapshot(nil)
}

// memQueueStore is an in-memory interfaces.QueueStore
type memQueueStore struct {
	items  []models.QueueItem
	nextID int
}

func (s *memQueueStore) GetAll(ctx context.Context) []models.QueueItem {
	out := make([]models.QueueItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *memQueueStore) Get(ctx context.Context, id string) (*models.QueueItem, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			item := s.items[i]
			return &item, nil
		}
	}
	return nil, interfaces.ErrItemNotFound
}

func (s *memQueueStore) Add(ctx context.Context, item models.QueueItem) models.QueueItem {
	if item.ID == "" {
		s.nextID++
		item.ID = "mem_" + string(rune('a'+s.nextID-1))
	}
	s.items = append(s.items, item)
	return item
}

func (s *memQueueStore) Update(ctx context.Context, id string, patch models.QueueItemPatch) {
	for i := range s.items {
		if s.items[i].ID == id {
			patch.Apply(&s.items[i])
			return
		}
	}
}

func (s *memQueueStore) Remove(ctx context.Context, id string) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *memQueueStore) ClearTerminal(ctx context.Context) int {
	kept := s.items[:0]
	removed := 0
	for _, item := range s.items {
		if item.Status.IsTerminal() {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed
}

func (s *memQueueStore) Replace(ctx context.Context, items []models.QueueItem) {
	s.items = make([]models.QueueItem, len(items))
	copy(s.items, items)
}

// mockVoiceCatalog implements interfaces.VoiceCatalog
type mockVoiceCatalog struct {
	validateErr error
}

func (m *mockVoiceCatalog) List(ctx context.Context) ([]models.VoicePreset, error) {
	return nil, nil
}

func (m *mockVoiceCatalog) DisplayName(hostVoice, guestVoice string) string {
	return hostVoice + " + " + guestVoice
}

func (m *mockVoiceCatalog) Validate(hostVoice, guestVoice string) error {
	return m.validateErr
}

// mockGenerationClient implements interfaces.GenerationClient
type mockGenerationClient struct {
	estimateFunc func(ctx context.Context, content string) (*models.CostEstimate, error)
}

func (m *mockGenerationClient) Submit(ctx context.Context, req models.GenerationRequest) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockGenerationClient) Status(ctx context.Context, jobID string) (*models.GenerationStatus, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGenerationClient) EstimateCost(ctx context.Context, content string) (*models.CostEstimate, error) {
	if m.estimateFunc != nil {
		return m.estimateFunc(ctx, content)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGenerationClient) Voices(ctx context.Context) ([]models.VoicePreset, error) {
	return nil, nil
}

func (m *mockGenerationClient) Health(ctx context.Context) error {
	return nil
}

func newQueueHandler(orch *mockOrchestrator, store *memQueueStore, voices *mockVoiceCatalog, client *mockGenerationClient) *QueueHandler {
	logger := arbor.NewLogger()
	return NewQueueHandler(orch, store, transfer.NewService(store, nil, logger), voices, client, logger)
}

func TestListHandler_ReturnsSnapshot(t *testing.T) {
	orch := &mockOrchestrator{
		snapshotFunc: func(ctx context.Context) models.QueueSnapshot {
			return models.NewQueueSnapshot([]models.QueueItem{
				{ID: "a", Status: models.ItemStatusPending},
				{ID: "b", Status: models.ItemStatusCompleted},
			})
		},
	}
	handler := newQueueHandler(orch, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest("GET", "/api/queue", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot models.QueueSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Len(t, snapshot.Items, 2)
	assert.Equal(t, 1, snapshot.Pending)
	assert.Equal(t, 1, snapshot.Completed)
}

func TestEnqueueHandler_PassesTopicsAndVoices(t *testing.T) {
	var gotTopics []models.Topic
	var gotHost, gotGuest string

	orch := &mockOrchestrator{
		enqueueFunc: func(ctx context.Context, topics []models.Topic, hostVoice, guestVoice string) models.EnqueueResult {
			gotTopics = topics
			gotHost = hostVoice
			gotGuest = guestVoice
			return models.EnqueueResult{NewlyQueued: 2}
		},
	}
	handler := newQueueHandler(orch, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	body := `{"topics": [{"id": "t1", "title": "One", "content": "body one"}, {"id": "t2", "title": "Two", "content": "body two"}], "host_voice": "alloy", "guest_voice": "echo"}`
	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, httptest.NewRequest("POST", "/api/queue", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gotTopics, 2)
	assert.Equal(t, "alloy", gotHost)
	assert.Equal(t, "echo", gotGuest)

	var result models.EnqueueResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 2, result.NewlyQueued)
}

func TestEnqueueHandler_NoTopics(t *testing.T) {
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, httptest.NewRequest("POST", "/api/queue", strings.NewReader(`{"topics": []}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnqueueHandler_UnknownVoice(t *testing.T) {
	voices := &mockVoiceCatalog{validateErr: errors.New("unknown voice: robot")}
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, voices, &mockGenerationClient{})

	body := `{"topics": [{"id": "t1", "title": "One", "content": "body"}], "host_voice": "robot", "guest_voice": "echo"}`
	rec := httptest.NewRecorder()
	handler.EnqueueHandler(rec, httptest.NewRequest("POST", "/api/queue", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown voice")
}

func TestCancelHandler_FlagsOrchestrator(t *testing.T) {
	orch := &mockOrchestrator{}
	handler := newQueueHandler(orch, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.CancelHandler(rec, httptest.NewRequest("POST", "/api/queue/cancel", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orch.cancelCalled)
}

func TestRemoveHandler_UnknownID(t *testing.T) {
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.RemoveHandler(rec, httptest.NewRequest("DELETE", "/api/queue/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveHandler_DeletesItem(t *testing.T) {
	store := &memQueueStore{}
	store.Add(context.Background(), models.QueueItem{ID: "keep", Status: models.ItemStatusPending})
	store.Add(context.Background(), models.QueueItem{ID: "gone", Status: models.ItemStatusPending})

	handler := newQueueHandler(&mockOrchestrator{}, store, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.RemoveHandler(rec, httptest.NewRequest("DELETE", "/api/queue/gone", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.items, 1)
	assert.Equal(t, "keep", store.items[0].ID)
}

func TestClearCompletedHandler_ReportsRemovedCount(t *testing.T) {
	store := &memQueueStore{}
	store.Add(context.Background(), models.QueueItem{ID: "a", Status: models.ItemStatusPending})
	store.Add(context.Background(), models.QueueItem{ID: "b", Status: models.ItemStatusCompleted})
	store.Add(context.Background(), models.QueueItem{ID: "c", Status: models.ItemStatusFailed})

	handler := newQueueHandler(&mockOrchestrator{}, store, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.ClearCompletedHandler(rec, httptest.NewRequest("POST", "/api/queue/clear-completed", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, float64(2), response["removed"])
	assert.Len(t, store.items, 1)
}

func TestExportHandler_SetsDownloadHeader(t *testing.T) {
	store := &memQueueStore{}
	store.Add(context.Background(), models.QueueItem{TopicID: "t1", TopicTitle: "One", Status: models.ItemStatusPending})

	handler := newQueueHandler(&mockOrchestrator{}, store, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.ExportHandler(rec, httptest.NewRequest("GET", "/api/queue/export?filter=pending", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cadenza-queue-pending-")

	var doc models.ExportDocument
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	assert.Equal(t, models.ExportVersion, doc.Version)
	assert.Len(t, doc.Queue, 1)
}

func TestExportHandler_UnknownFilter(t *testing.T) {
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.ExportHandler(rec, httptest.NewRequest("GET", "/api/queue/export?filter=archived", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandler_RoundTrip(t *testing.T) {
	store := &memQueueStore{}
	store.Add(context.Background(), models.QueueItem{TopicID: "t1", TopicTitle: "One", Status: models.ItemStatusPending})

	handler := newQueueHandler(&mockOrchestrator{}, store, &mockVoiceCatalog{}, &mockGenerationClient{})

	exportRec := httptest.NewRecorder()
	handler.ExportHandler(exportRec, httptest.NewRequest("GET", "/api/queue/export", nil))
	require.Equal(t, http.StatusOK, exportRec.Code)

	importRec := httptest.NewRecorder()
	handler.ImportHandler(importRec, httptest.NewRequest("POST", "/api/queue/import", exportRec.Body))
	require.Equal(t, http.StatusOK, importRec.Code)

	var result models.ImportResult
	require.NoError(t, json.NewDecoder(importRec.Body).Decode(&result))
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, result.Warnings)
}

func TestImportHandler_MalformedDocument(t *testing.T) {
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.ImportHandler(rec, httptest.NewRequest("POST", "/api/queue/import", strings.NewReader("not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimateHandler_ProxiesEstimate(t *testing.T) {
	client := &mockGenerationClient{
		estimateFunc: func(ctx context.Context, content string) (*models.CostEstimate, error) {
			return &models.CostEstimate{LLMCost: 0.02, TTSCost: 0.08, TotalCost: 0.10}, nil
		},
	}
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, client)

	rec := httptest.NewRecorder()
	handler.EstimateHandler(rec, httptest.NewRequest("POST", "/api/queue/estimate", strings.NewReader(`{"content": "some document"}`)))

	require.Equal(t, http.StatusOK, rec.Code)

	var estimate models.CostEstimate
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&estimate))
	assert.InDelta(t, 0.10, estimate.TotalCost, 0.001)
}

func TestEstimateHandler_EmptyContent(t *testing.T) {
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.EstimateHandler(rec, httptest.NewRequest("POST", "/api/queue/estimate", strings.NewReader(`{"content": "  "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimateHandler_RemoteFailure(t *testing.T) {
	client := &mockGenerationClient{
		estimateFunc: func(ctx context.Context, content string) (*models.CostEstimate, error) {
			return nil, errors.New("service unavailable")
		},
	}
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, client)

	rec := httptest.NewRecorder()
	handler.EstimateHandler(rec, httptest.NewRequest("POST", "/api/queue/estimate", strings.NewReader(`{"content": "doc"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListHandler_RejectsWrongMethod(t *testing.T) {
	handler := newQueueHandler(&mockOrchestrator{}, &memQueueStore{}, &mockVoiceCatalog{}, &mockGenerationClient{})

	rec := httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest("POST", "/api/queue", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
