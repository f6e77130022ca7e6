package topics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestTopicService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewService(server.URL, arbor.NewLogger())
}

func TestDiscover(t *testing.T) {
	svc := newTestTopicService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/topics", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "science", r.URL.Query().Get("category"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"topics": []map[string]interface{}{
				{"id": "t1", "title": "Quantum Batteries", "content": "<p>Storage at the quantum scale.</p>"},
				{"id": "t2", "title": "Deep Sea Mining", "content": "Plain text content."},
			},
		})
	})

	topics, err := svc.Discover(context.Background(), "science", 5)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	// HTML content is normalized, plain text untouched
	assert.Equal(t, "Storage at the quantum scale.", topics[0].Content)
	assert.Equal(t, "Plain text content.", topics[1].Content)
}

func TestDiscoverUnconfigured(t *testing.T) {
	svc := NewService("", arbor.NewLogger())

	topics, err := svc.Discover(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestDiscoverRejected(t *testing.T) {
	svc := newTestTopicService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "category unknown",
		})
	})

	_, err := svc.Discover(context.Background(), "nope", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category unknown")
}

func TestGet(t *testing.T) {
	svc := newTestTopicService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/topics/t1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"topic": map[string]interface{}{
				"id":      "t1",
				"title":   "Quantum Batteries",
				"content": "<p>Body.</p>",
			},
		})
	})

	topic, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", topic.ID)
	assert.Equal(t, "Body.", topic.Content)
}

func TestGetUnconfigured(t *testing.T) {
	svc := NewService("", arbor.NewLogger())

	_, err := svc.Get(context.Background(), "t1")
	assert.Error(t, err)
}

func TestGetHTTPError(t *testing.T) {
	svc := newTestTopicService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := svc.Get(context.Background(), "missing")
	assert.Error(t, err)
}
